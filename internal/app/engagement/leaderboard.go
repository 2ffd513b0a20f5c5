package engagement

import (
	"context"
	"fmt"

	"github.com/sahaara-app/sahaara/internal/domain"
	"github.com/sahaara-app/sahaara/internal/infra/docstore"
	"github.com/sahaara-app/sahaara/internal/infra/metrics"
)

// defaultLeaderboardSize caps ranked reads when the caller passes no limit.
const defaultLeaderboardSize = 10

// Leaderboard returns the top N projection rows ordered by points
// descending. Rank is positional; it is never stored.
func (l *Ledger) Leaderboard(ctx context.Context, topN int) ([]domain.LeaderboardEntry, error) {
	snaps, err := l.store.RunQuery(ctx, leaderboardQuery(topN))
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return decodeLeaderboard(snaps), nil
}

// SubscribeLeaderboard re-pushes the full ordered top-N sequence on every
// change to any leaderboard entry.
func (l *Ledger) SubscribeLeaderboard(topN int, cb func([]domain.LeaderboardEntry)) (func(), error) {
	cancel, err := l.store.WatchQuery(leaderboardQuery(topN), func(snaps []docstore.Snapshot) {
		cb(decodeLeaderboard(snaps))
	})
	if err != nil {
		return nil, err
	}
	metrics.WatchesActive.WithLabelValues("leaderboard").Inc()
	return func() {
		cancel()
		metrics.WatchesActive.WithLabelValues("leaderboard").Dec()
	}, nil
}

func leaderboardQuery(topN int) docstore.Query {
	if topN <= 0 {
		topN = defaultLeaderboardSize
	}
	return docstore.Query{
		Collection: "leaderboard",
		OrderBy:    "points",
		Desc:       true,
		Limit:      topN,
	}
}

func decodeLeaderboard(snaps []docstore.Snapshot) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(snaps))
	for _, snap := range snaps {
		var e domain.LeaderboardEntry
		if err := snap.DataTo(&e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
