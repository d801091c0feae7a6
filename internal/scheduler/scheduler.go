package scheduler

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// DefaultBaseInterval is the slow steady-state poll cadence.
	DefaultBaseInterval = 10 * time.Second

	// DefaultTurboInterval is the cadence while turbo is active.
	DefaultTurboInterval = 500 * time.Millisecond

	// minBaseInterval is the floor an administrator can push the base
	// cadence down to.
	minBaseInterval = 500 * time.Millisecond

	// jitterSpan randomizes every sleep so polls do not align with the
	// provider's own internal cadence.
	jitterSpan = 200 * time.Millisecond
)

// PollScheduler computes how long the watcher sleeps between ticks. It
// is a process-wide instance with its own mutable state; all mutation
// funnels through its methods, and reads are safe from any goroutine.
//
// Turbo is an administrative override: while its deadline lies in the
// future the turbo interval wins over the base one, and once the
// deadline passes the scheduler reverts to base on the next read with
// no explicit transition event.
type PollScheduler struct {
	mu         sync.Mutex
	base       time.Duration
	turbo      time.Duration
	turboUntil time.Time
}

func New() *PollScheduler {
	return &PollScheduler{
		base:  DefaultBaseInterval,
		turbo: DefaultTurboInterval,
	}
}

// SetBaseInterval replaces the steady-state cadence, clamped to the
// minimum the provider tolerates.
func (s *PollScheduler) SetBaseInterval(d time.Duration) {
	if d < minBaseInterval {
		d = minBaseInterval
	}
	s.mu.Lock()
	s.base = d
	s.mu.Unlock()
}

// BaseInterval returns the current steady-state cadence.
func (s *PollScheduler) BaseInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// EnableTurbo switches to the fast cadence for the given duration,
// always extending or replacing any earlier deadline.
func (s *PollScheduler) EnableTurbo(d time.Duration) {
	if d < time.Second {
		d = time.Second
	}
	s.mu.Lock()
	s.turboUntil = time.Now().Add(d)
	s.mu.Unlock()
}

// TurboRemaining reports how much turbo time is left, zero when turbo
// is off or expired.
func (s *PollScheduler) TurboRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	rem := time.Until(s.turboUntil)
	if rem < 0 {
		return 0
	}
	return rem
}

// CurrentInterval resolves the cadence for the next tick.
func (s *PollScheduler) CurrentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Now().Before(s.turboUntil) {
		return s.turbo
	}
	return s.base
}

// NextDelay is CurrentInterval plus a small random jitter.
func (s *PollScheduler) NextDelay() time.Duration {
	return s.CurrentInterval() + time.Duration(rand.Int63n(int64(jitterSpan)))
}
