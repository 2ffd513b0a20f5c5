// Package docstore provides a transactional document store on SQLite.
// Documents are JSON blobs addressed by slash-separated paths
// ("users/U/data/stats"); the segment before the document id is its
// collection. Uses WAL mode for concurrent reads and crash-safe writes.
//
// Three capabilities sit on top of the table: merge-aware single-document
// writes, optimistic-concurrency transactions (see tx.go) and snapshot
// subscriptions to documents and ordered queries (see watch.go, query.go).
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Store wraps a SQLite connection holding the document table plus the
// in-process watch hub.
type Store struct {
	db  *sql.DB
	hub *hub

	closed chan struct{}
}

// Open creates or opens the document store at dir/engagement.db.
// Enables WAL mode, foreign keys, and a 5-second busy timeout.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "engagement.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, hub: newHub(), closed: make(chan struct{})}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close cleanly shuts down the store. Outstanding watches stop receiving
// updates; their cancel funcs remain safe to call.
func (s *Store) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			path       TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			doc        TEXT NOT NULL,
			version    INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Snapshots ──────────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of a document. A snapshot for an absent
// document has Exists() == false and version 0.
type Snapshot struct {
	Path    string
	raw     []byte
	version int64
}

// Exists reports whether the document was present when the snapshot was taken.
func (s Snapshot) Exists() bool { return s.version > 0 }

// DataTo unmarshals the document into v. Calling it on an absent snapshot
// leaves v untouched and returns nil.
func (s Snapshot) DataTo(v any) error {
	if !s.Exists() {
		return nil
	}
	if err := json.Unmarshal(s.raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return nil
}

// ─── Single-document reads and writes ───────────────────────────────────────

// Get returns the current snapshot of the document at path.
func (s *Store) Get(ctx context.Context, path string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT doc, version FROM documents WHERE path = ?`, path)

	snap := Snapshot{Path: path}
	var doc string
	err := row.Scan(&doc, &snap.version)
	if err == sql.ErrNoRows {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("get %s: %w", path, err)
	}
	snap.raw = []byte(doc)
	return snap, nil
}

// Set writes the document at path. With merge, top-level fields of value are
// folded into the existing document; fields not supplied are preserved.
// Runs as a single-write transaction so watchers observe it atomically.
func (s *Store) Set(ctx context.Context, path string, value any, merge bool) error {
	return s.RunTransaction(ctx, func(tx *Tx) error {
		if merge {
			return tx.SetMerge(path, value)
		}
		return tx.Set(path, value)
	})
}

// Delete removes the document at path. Absent documents delete cleanly.
func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	s.hub.notify(s, []string{path})
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// collectionOf returns everything before the final path segment:
// "users/U/emotions/2024-01-01" -> "users/U/emotions".
func collectionOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// mergeDocs folds the top-level fields of update into base. Either side may
// be empty JSON.
func mergeDocs(base, update []byte) ([]byte, error) {
	merged := map[string]json.RawMessage{}
	if len(base) > 0 {
		if err := json.Unmarshal(base, &merged); err != nil {
			return nil, err
		}
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(update, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func nowMillis() int64 { return time.Now().UnixMilli() }
