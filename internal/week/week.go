// Package week normalises dates to the Monday that starts their week.
package week

import (
	"fmt"
	"time"
)

// Layout is the format of week keys.
const Layout = "2006-01-02"

// Start returns midnight UTC of the Monday on or before t.
func Start(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key formats the start of t's week.
func Key(t time.Time) string {
	return Start(t).Format(Layout)
}

// Parse reads a YYYY-MM-DD date and returns the key of its week, so any day
// of the week addresses the same record.
func Parse(s string) (string, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("invalid week %q, expected YYYY-MM-DD: %w", s, err)
	}
	return Key(t), nil
}

// Current returns the key of the week containing now.
func Current() string {
	return Key(time.Now())
}
