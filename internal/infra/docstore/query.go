package docstore

import (
	"context"
	"fmt"
	"regexp"
)

// Query is an ordered range read over one collection. OrderBy names a
// top-level JSON field of the documents; Limit <= 0 means unbounded.
type Query struct {
	Collection string
	OrderBy    string
	Desc       bool
	Limit      int
}

// orderFieldRe restricts OrderBy to plain identifiers; field names come from
// code, never from callers, so this is a tripwire rather than a defense.
var orderFieldRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RunQuery executes the query once and returns the ordered snapshots.
func (s *Store) RunQuery(ctx context.Context, q Query) ([]Snapshot, error) {
	if q.OrderBy != "" && !orderFieldRe.MatchString(q.OrderBy) {
		return nil, fmt.Errorf("invalid order field %q", q.OrderBy)
	}

	stmt := `SELECT path, doc, version FROM documents WHERE collection = ?`
	if q.OrderBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		stmt += fmt.Sprintf(` ORDER BY json_extract(doc, '$.%s') %s`, q.OrderBy, dir)
	}
	args := []any{q.Collection}
	if q.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var doc string
		if err := rows.Scan(&snap.Path, &doc, &snap.version); err != nil {
			return nil, err
		}
		snap.raw = []byte(doc)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
