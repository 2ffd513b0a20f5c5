package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahaara-app/sahaara/internal/api"
	"github.com/sahaara-app/sahaara/internal/app/engagement"
	"github.com/sahaara-app/sahaara/internal/health"
	"github.com/sahaara-app/sahaara/internal/infra/docstore"
	_ "github.com/sahaara-app/sahaara/internal/infra/metrics" // Register Prometheus metrics
)

// Daemon is the core Sahaara runtime. It wires together all services: the
// document store, the gamification ledger, the HTTP API and health checks.
// Everything is constructed here and injected — no module-level singletons.
type Daemon struct {
	Config Config
	Store  *docstore.Store
	Ledger *engagement.Ledger
	Server *api.Server
	Health *health.Checker
	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	dataDir := cfg.Store.Dir
	if dataDir == "" {
		dataDir = sahaaraHome()
	}

	store, err := docstore.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}

	ledger := engagement.NewLedger(store)
	if cfg.User.DisplayName != "" {
		uid, name := cfg.User.UID, cfg.User.DisplayName
		ledger.SetNameResolver(func(u string) string {
			if u == uid {
				return name
			}
			return ""
		})
	}

	srv := api.NewServer(ledger)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	if cfg.Assistant.BaseURL != "" {
		srv.SetAssistant(api.NewAssistant(
			cfg.Assistant.BaseURL,
			cfg.Assistant.SpeechURL,
			cfg.Assistant.APIKey,
			cfg.Assistant.Model,
		))
	}

	checker := health.NewChecker(store, dataDir)
	srv.SetHealthChecker(checker)

	return &Daemon{
		Config: cfg,
		Store:  store,
		Ledger: ledger,
		Server: srv,
		Health: checker,
	}, nil
}

// Serve runs the HTTP API until the context is cancelled or a SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE feeds hold connections open
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.Store.Close()
	}()

	fmt.Printf("Sahaara engine serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close stops background work and releases the store.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	_ = d.Store.Close()
}
