package engagement

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sahaara-app/sahaara/internal/domain"
	"github.com/sahaara-app/sahaara/internal/infra/docstore"
	"github.com/sahaara-app/sahaara/internal/infra/metrics"
)

// summaryWindow is how many most-recent entries feed the weekly summary.
const summaryWindow = 7

// breakdownTop is how many emotion tags the breakdown reports.
const breakdownTop = 4

// palette colors the breakdown bars by rank, cycling past six.
var palette = [...]string{"#60A5FA", "#F59E0B", "#A78BFA", "#10B981", "#F472B6", "#34D399"}

// RecordEmotion upserts the emotion entry for one calendar day. dateKey ""
// means today; recording twice for a day overwrites, never duplicates.
// Storage failures surface to the caller — the client retries later, the
// ledger never fabricates success.
func (l *Ledger) RecordEmotion(ctx context.Context, uid string, emotions []string, intensity int, dateKey string) error {
	if uid == "" {
		return domain.ErrEmptyUID
	}
	if len(emotions) == 0 {
		return domain.ErrNoEmotions
	}
	if intensity < 1 || intensity > 10 {
		return domain.ErrIntensityOutOfRange
	}

	now := l.now()
	key := dateKey
	if key == "" {
		key = domain.DateKey(now)
	} else if _, err := domain.ParseDateKey(key, now.Location()); err != nil {
		return err
	}

	entry := domain.EmotionEntry{
		ID:        key,
		Date:      key,
		Emotions:  emotions,
		Intensity: intensity,
		CreatedAt: now.UnixMilli(),
	}
	if err := l.store.Set(ctx, emotionPath(uid, key), entry, true); err != nil {
		return fmt.Errorf("record emotion: %w", err)
	}
	metrics.EmotionsRecorded.Inc()
	return nil
}

// WeeklySummary computes the mood trend and emotion breakdown over the last
// seven entries, one-shot.
func (l *Ledger) WeeklySummary(ctx context.Context, uid string) (domain.EmotionSummary, error) {
	if uid == "" {
		return domain.EmotionSummary{}, domain.ErrEmptyUID
	}
	snaps, err := l.store.RunQuery(ctx, recentEmotionsQuery(uid))
	if err != nil {
		return domain.EmotionSummary{}, fmt.Errorf("weekly summary: %w", err)
	}
	return summarize(snaps), nil
}

// SubscribeWeeklySummary opens a live subscription that recomputes the
// summary on every change to the user's emotion log.
func (l *Ledger) SubscribeWeeklySummary(uid string, cb func(domain.EmotionSummary)) (func(), error) {
	if uid == "" {
		return nil, domain.ErrEmptyUID
	}
	cancel, err := l.store.WatchQuery(recentEmotionsQuery(uid), func(snaps []docstore.Snapshot) {
		cb(summarize(snaps))
	})
	if err != nil {
		return nil, err
	}
	metrics.WatchesActive.WithLabelValues("summary").Inc()
	return func() {
		cancel()
		metrics.WatchesActive.WithLabelValues("summary").Dec()
	}, nil
}

func recentEmotionsQuery(uid string) docstore.Query {
	return docstore.Query{
		Collection: emotionsCollection(uid),
		OrderBy:    "createdAt",
		Desc:       true,
		Limit:      summaryWindow,
	}
}

// summarize derives the (trend, breakdown) pair from the fetched entries.
// Entries arrive newest-first and are re-sorted ascending by creation time,
// so the trend reads left to right.
func summarize(snaps []docstore.Snapshot) domain.EmotionSummary {
	entries := make([]domain.EmotionEntry, 0, len(snaps))
	for _, snap := range snaps {
		var e domain.EmotionEntry
		if err := snap.DataTo(&e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt < entries[j].CreatedAt
	})

	trend := make([]domain.MoodPoint, 0, len(entries))
	for _, e := range entries {
		// Weekday comes from the entry's own DateKey, not creation order.
		day, err := domain.WeekdayAbbrev(e.Date)
		if err != nil {
			continue
		}
		trend = append(trend, domain.MoodPoint{Day: day, MoodScore: e.Intensity})
	}

	// Tag histogram across every emotion of every entry, in discovery order
	// so equal counts tie-break stably.
	counts := map[string]int{}
	var order []string
	total := 0
	for _, e := range entries {
		for _, tag := range e.Emotions {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
			total++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if total == 0 {
		total = 1
	}
	top := order
	if len(top) > breakdownTop {
		top = top[:breakdownTop]
	}
	breakdown := make([]domain.EmotionSlice, 0, len(top))
	for rank, tag := range top {
		breakdown = append(breakdown, domain.EmotionSlice{
			Emotion:    tag,
			Percentage: int(math.Round(float64(counts[tag]) / float64(total) * 100)),
			Color:      palette[rank%len(palette)],
		})
	}

	return domain.EmotionSummary{Trend: trend, Breakdown: breakdown}
}
