// Package domain holds the pure types of the Sahaara engagement engine.
// Nothing in here touches storage or the network.
package domain

import (
	"fmt"
	"time"
)

// dateKeyLayout is the canonical calendar-day format, e.g. "2024-01-05".
const dateKeyLayout = "2006-01-02"

// DateKey returns the canonical YYYY-MM-DD key for t's local calendar day.
// Month and day are zero-padded.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// WeekKey returns the DateKey of the Monday starting the ISO week that
// contains t. Sunday maps back 6 days, every other weekday back weekday-1.
func WeekKey(t time.Time) string {
	day := int(t.Weekday()) // 0 (Sun) .. 6 (Sat)
	diff := 1 - day
	if day == 0 {
		diff = -6
	}
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return DateKey(monday.AddDate(0, 0, diff))
}

// ParseDateKey parses a DateKey back into a midnight time in loc.
// Fails with ErrInvalidDateKey for anything that is not a real calendar day.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}
	return t, nil
}

// WeekKeyOf returns the WeekKey of the week containing the given DateKey.
func WeekKeyOf(key string) (string, error) {
	t, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return "", err
	}
	return WeekKey(t), nil
}

// DayGap returns the calendar-day difference a-b between two DateKeys.
// Negative when a precedes b.
func DayGap(a, b string) (int, error) {
	ta, err := ParseDateKey(a, time.UTC)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDateKey(b, time.UTC)
	if err != nil {
		return 0, err
	}
	return int(ta.Sub(tb).Hours() / 24), nil
}

// WeekdayAbbrev returns the three-letter weekday name ("Mon".."Sun") of the
// day a DateKey identifies.
func WeekdayAbbrev(key string) (string, error) {
	t, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return "", err
	}
	return t.Weekday().String()[:3], nil
}
