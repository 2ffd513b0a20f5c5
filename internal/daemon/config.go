// Package daemon manages the Sahaara engine lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all engine configuration.
type Config struct {
	User       UserConfig       `toml:"user"`
	API        APIConfig        `toml:"api"`
	Store      StoreConfig      `toml:"store"`
	Engagement EngagementConfig `toml:"engagement"`
	Assistant  AssistantConfig  `toml:"assistant"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Logging    LoggingConfig    `toml:"logging"`
}

// UserConfig identifies the default local user for CLI commands.
type UserConfig struct {
	UID         string `toml:"uid"`
	DisplayName string `toml:"display_name"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StoreConfig controls the document store.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// EngagementConfig holds the ledger's award parameters.
type EngagementConfig struct {
	PointsPerChallenge int `toml:"points_per_challenge"`
	WeeklyGoalDays     int `toml:"weekly_goal_days"`
	LeaderboardSize    int `toml:"leaderboard_size"`
}

// AssistantConfig points at the hosted text/speech endpoints.
// Empty base_url disables the assistant passthrough entirely.
type AssistantConfig struct {
	BaseURL   string `toml:"base_url"`
	SpeechURL string `toml:"speech_url"`
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := sahaaraHome()
	return Config{
		User: UserConfig{
			UID: "local",
		},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8980,
			CORSOrigins: []string{"*"},
		},
		Store: StoreConfig{
			Dir: filepath.Join(homeDir, "data"),
		},
		Engagement: EngagementConfig{
			PointsPerChallenge: 50,
			WeeklyGoalDays:     4,
			LeaderboardSize:    10,
		},
		Assistant: AssistantConfig{
			Model: "gemini-2.5-flash",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "sahaara.log"),
		},
	}
}

// LoadConfig reads config from ~/.sahaara/config.toml. On first run the file
// does not exist yet; the defaults are written out so the user has something
// to edit.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(sahaaraHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(cfg); err != nil {
			return cfg, fmt.Errorf("write default config: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config to ~/.sahaara/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(sahaaraHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// sahaaraHome returns the engine data directory.
func sahaaraHome() string {
	if env := os.Getenv("SAHAARA_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sahaara")
}

// SahaaraHome is exported for use by other packages.
func SahaaraHome() string {
	return sahaaraHome()
}
