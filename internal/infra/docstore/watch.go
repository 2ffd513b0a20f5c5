package docstore

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// hub fans committed writes out to document and query watchers. Callbacks run
// synchronously on the committing goroutine, matching the snapshot-listener
// contract the readers are written against: every committed change re-pushes
// the full current snapshot.
type hub struct {
	mu      sync.Mutex
	docs    map[string]map[string]func(Snapshot) // path -> watch id -> cb
	queries map[string]*queryWatch               // watch id -> watch
}

type queryWatch struct {
	query Query
	cb    func([]Snapshot)
}

func newHub() *hub {
	return &hub{
		docs:    make(map[string]map[string]func(Snapshot)),
		queries: make(map[string]*queryWatch),
	}
}

// Watch subscribes to a single document. The callback fires once with the
// current snapshot and again after every committed change until the returned
// cancel func is called. Failing to cancel leaks a standing watch.
func (s *Store) Watch(path string, cb func(Snapshot)) (func(), error) {
	snap, err := s.Get(context.Background(), path)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	s.hub.mu.Lock()
	if s.hub.docs[path] == nil {
		s.hub.docs[path] = make(map[string]func(Snapshot))
	}
	s.hub.docs[path][id] = cb
	s.hub.mu.Unlock()

	cb(snap)

	return func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.docs[path], id)
		if len(s.hub.docs[path]) == 0 {
			delete(s.hub.docs, path)
		}
	}, nil
}

// WatchQuery subscribes to an ordered query. The callback fires with the full
// ordered result set immediately and after every committed change to any
// document in the query's collection.
func (s *Store) WatchQuery(q Query, cb func([]Snapshot)) (func(), error) {
	snaps, err := s.RunQuery(context.Background(), q)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	s.hub.mu.Lock()
	s.hub.queries[id] = &queryWatch{query: q, cb: cb}
	s.hub.mu.Unlock()

	cb(snaps)

	return func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.queries, id)
	}, nil
}

// notify re-reads and pushes snapshots for every watcher touched by the
// committed paths. Store errors degrade to "no update" — subscriptions never
// error the reader out.
func (h *hub) notify(s *Store, paths []string) {
	select {
	case <-s.closed:
		return
	default:
	}

	type docPush struct {
		path string
		cbs  []func(Snapshot)
	}
	var docPushes []docPush
	var queryPushes []*queryWatch

	touched := make(map[string]bool, len(paths))
	for _, p := range paths {
		touched[collectionOf(p)] = true
	}

	h.mu.Lock()
	for _, p := range paths {
		if cbs := h.docs[p]; len(cbs) > 0 {
			push := docPush{path: p}
			for _, cb := range cbs {
				push.cbs = append(push.cbs, cb)
			}
			docPushes = append(docPushes, push)
		}
	}
	for _, qw := range h.queries {
		if touched[qw.query.Collection] {
			queryPushes = append(queryPushes, qw)
		}
	}
	h.mu.Unlock()

	for _, push := range docPushes {
		snap, err := s.Get(context.Background(), push.path)
		if err != nil {
			log.Printf("[docstore] watch refresh %s: %v", push.path, err)
			continue
		}
		for _, cb := range push.cbs {
			cb(snap)
		}
	}
	for _, qw := range queryPushes {
		snaps, err := s.RunQuery(context.Background(), qw.query)
		if err != nil {
			log.Printf("[docstore] query refresh %s: %v", qw.query.Collection, err)
			continue
		}
		qw.cb(snaps)
	}
}
