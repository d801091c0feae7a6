package scheduler

import "time"

const (
	// DefaultIdleThreshold is how many consecutive empty ticks flip
	// the idle cadence from the short delay to the long one.
	DefaultIdleThreshold = 30

	DefaultIdleShort = 2 * time.Second
	DefaultIdleLong  = 3 * time.Second
)

// IdleTracker backs off the polling cadence when nothing interesting
// has been seen for a while. It is driven by exactly one loop and needs
// no locking.
type IdleTracker struct {
	threshold int
	short     time.Duration
	long      time.Duration
	streak    int
}

func NewIdleTracker(threshold int, short, long time.Duration) *IdleTracker {
	if threshold <= 0 {
		threshold = DefaultIdleThreshold
	}
	if short <= 0 {
		short = DefaultIdleShort
	}
	if long <= 0 {
		long = DefaultIdleLong
	}
	return &IdleTracker{
		threshold: threshold,
		short:     short,
		long:      long,
	}
}

// Observe records the candidate count of one tick: any candidate resets
// the streak, an empty tick extends it.
func (t *IdleTracker) Observe(candidates int) {
	if candidates > 0 {
		t.streak = 0
		return
	}
	t.streak++
}

// Delay returns the idle sleep for the current streak.
func (t *IdleTracker) Delay() time.Duration {
	if t.streak > t.threshold {
		return t.long
	}
	return t.short
}

// Streak exposes the current run of empty ticks.
func (t *IdleTracker) Streak() int {
	return t.streak
}
