package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sahaara-app/sahaara/internal/domain"
	"github.com/sahaara-app/sahaara/internal/infra/metrics"
)

// maxTxAttempts bounds the optimistic-concurrency retry loop. Beyond it the
// caller sees domain.ErrConflictRetryExhausted and must retry itself.
const maxTxAttempts = 5

// errConflict signals a version mismatch between the transaction's read set
// and the committed state; RunTransaction retries on it.
var errConflict = errors.New("docstore: write conflict")

// Tx is a read-buffered, write-staged transaction. Reads record the document
// version they observed; writes are staged in memory. Commit re-validates
// every read version inside a single SQLite transaction, so the function
// body is serializable against concurrent transactions touching the same
// documents.
type Tx struct {
	store  *Store
	ctx    context.Context
	reads  map[string]int64 // path -> version observed (0 = absent)
	writes []stagedWrite
}

type stagedWrite struct {
	path  string
	value []byte
	merge bool
}

// Get reads a document and records its version in the transaction's read set.
// Reading a path the transaction has already staged a write for is a bug in
// the caller (reads must precede writes) and fails fast.
func (tx *Tx) Get(path string) (Snapshot, error) {
	for _, w := range tx.writes {
		if w.path == path {
			return Snapshot{}, fmt.Errorf("%w: %s", domain.ErrTxReadAfterWrite, path)
		}
	}
	snap, err := tx.store.Get(tx.ctx, path)
	if err != nil {
		return snap, err
	}
	tx.reads[path] = snap.version
	return snap, nil
}

// Set stages a full-document write.
func (tx *Tx) Set(path string, value any) error {
	return tx.stage(path, value, false)
}

// SetMerge stages a merge write: top-level fields of value are folded into
// whatever the document holds at commit time.
func (tx *Tx) SetMerge(path string, value any) error {
	return tx.stage(path, value, true)
}

func (tx *Tx) stage(path string, value any, merge bool) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tx.writes = append(tx.writes, stagedWrite{path: path, value: raw, merge: merge})
	return nil
}

// RunTransaction executes fn with optimistic concurrency: on a conflicting
// concurrent commit the whole function is re-run against fresh state, up to
// maxTxAttempts times. fn must be side-effect free apart from tx writes.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if attempt > 0 {
			// Brief backoff lets the winning writer's commit settle.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 5 * time.Millisecond):
			}
		}

		tx := &Tx{store: s, ctx: ctx, reads: make(map[string]int64)}
		if err := fn(tx); err != nil {
			return err
		}

		err := s.commit(ctx, tx)
		if err == nil {
			s.hub.notify(s, touchedPaths(tx))
			return nil
		}
		if errors.Is(err, errConflict) {
			metrics.TxConflicts.Inc()
			continue
		}
		return err
	}
	return domain.ErrConflictRetryExhausted
}

// commit validates the read set and applies the staged writes atomically.
func (s *Store) commit(ctx context.Context, tx *Tx) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer sqlTx.Rollback()

	for path, observed := range tx.reads {
		var current int64
		err := sqlTx.QueryRowContext(ctx,
			`SELECT version FROM documents WHERE path = ?`, path).Scan(&current)
		if err == sql.ErrNoRows {
			current = 0
		} else if err != nil {
			return fmt.Errorf("validate %s: %w", path, err)
		}
		if current != observed {
			return errConflict
		}
	}

	now := nowMillis()
	for _, w := range tx.writes {
		var doc string
		var version int64
		err := sqlTx.QueryRowContext(ctx,
			`SELECT doc, version FROM documents WHERE path = ?`, w.path).Scan(&doc, &version)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("load %s: %w", w.path, err)
		}

		value := w.value
		if w.merge && doc != "" {
			value, err = mergeDocs([]byte(doc), w.value)
			if err != nil {
				return fmt.Errorf("merge %s: %w", w.path, err)
			}
		}

		_, err = sqlTx.ExecContext(ctx,
			`INSERT INTO documents (path, collection, doc, version, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET
				doc=excluded.doc,
				version=excluded.version,
				updated_at=excluded.updated_at`,
			w.path, collectionOf(w.path), string(value), version+1, now)
		if err != nil {
			return fmt.Errorf("write %s: %w", w.path, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func touchedPaths(tx *Tx) []string {
	paths := make([]string, 0, len(tx.writes))
	for _, w := range tx.writes {
		paths = append(paths, w.path)
	}
	return paths
}
