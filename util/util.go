// Package util holds small helpers shared by the drivers.
package util

import "time"

// SkipThrottler lets through at most one event per period and counts the events it skipped.
type SkipThrottler struct {
	d       time.Duration
	last    time.Time
	skipped int
	now     func() time.Time
}

func NewSkipThrottler(d time.Duration) *SkipThrottler {
	tt := &SkipThrottler{d: d, last: time.Date(0, 0, 0, 0, 0, 0, 0, time.UTC), now: time.Now}
	return tt
}

// Ok reports whether the event should be handled, and resets the skip count if so.
func (tt *SkipThrottler) Ok() bool {
	now := tt.now()
	if now.Before(tt.last.Add(tt.d)) {
		tt.skipped++
		return false
	}

	tt.last = now
	tt.skipped = 0
	return true
}

// Skipped returns the number of events skipped since the last one let through.
func (tt *SkipThrottler) Skipped() int {
	return tt.skipped
}
