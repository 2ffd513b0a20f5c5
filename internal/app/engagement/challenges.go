package engagement

import (
	"context"
	"fmt"
	"sync"

	"github.com/sahaara-app/sahaara/internal/domain"
	"github.com/sahaara-app/sahaara/internal/infra/docstore"
	"github.com/sahaara-app/sahaara/internal/infra/metrics"
)

// Challenges reads the two catalog documents once. Absent documents leave
// their slot nil; the catalog is managed outside the ledger.
func (l *Ledger) Challenges(ctx context.Context) (domain.ActiveChallenges, error) {
	var active domain.ActiveChallenges

	daily, err := l.store.Get(ctx, challengeDailyPath)
	if err != nil {
		return active, fmt.Errorf("read challenges: %w", err)
	}
	weekly, err := l.store.Get(ctx, challengeWeeklyPath)
	if err != nil {
		return active, fmt.Errorf("read challenges: %w", err)
	}

	active.Daily = decodeChallenge(daily, domain.ChallengeDaily)
	active.Weekly = decodeChallenge(weekly, domain.ChallengeWeekly)
	return active, nil
}

// SubscribeChallenges merges partial updates to either catalog document into
// a combined view and re-emits on every change. One cancel func tears down
// both underlying watches.
func (l *Ledger) SubscribeChallenges(cb func(domain.ActiveChallenges)) (func(), error) {
	var mu sync.Mutex
	var current domain.ActiveChallenges

	emit := func() {
		cb(current)
	}

	cancelDaily, err := l.store.Watch(challengeDailyPath, func(snap docstore.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if def := decodeChallenge(snap, domain.ChallengeDaily); def != nil {
			current.Daily = def
			emit()
		}
	})
	if err != nil {
		return nil, err
	}

	cancelWeekly, err := l.store.Watch(challengeWeeklyPath, func(snap docstore.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if def := decodeChallenge(snap, domain.ChallengeWeekly); def != nil {
			current.Weekly = def
			emit()
		}
	})
	if err != nil {
		cancelDaily()
		return nil, err
	}

	metrics.WatchesActive.WithLabelValues("challenges").Inc()
	return func() {
		cancelDaily()
		cancelWeekly()
		metrics.WatchesActive.WithLabelValues("challenges").Dec()
	}, nil
}

func decodeChallenge(snap docstore.Snapshot, typ domain.ChallengeType) *domain.ChallengeDefinition {
	if !snap.Exists() {
		return nil
	}
	var def domain.ChallengeDefinition
	if err := snap.DataTo(&def); err != nil {
		return nil
	}
	def.ID = string(typ)
	def.Type = typ
	return &def
}
