package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollScheduler_Defaults(t *testing.T) {
	s := New()
	assert.Equal(t, DefaultBaseInterval, s.CurrentInterval())
	assert.Equal(t, time.Duration(0), s.TurboRemaining())
}

func TestPollScheduler_SetBaseIntervalClampsToFloor(t *testing.T) {
	s := New()
	s.SetBaseInterval(10 * time.Millisecond)
	assert.Equal(t, minBaseInterval, s.BaseInterval())

	s.SetBaseInterval(3 * time.Second)
	assert.Equal(t, 3*time.Second, s.BaseInterval())
}

func TestPollScheduler_TurboOverridesBase(t *testing.T) {
	s := New()
	s.EnableTurbo(180 * time.Second)

	// Turbo takes effect immediately.
	assert.Equal(t, DefaultTurboInterval, s.CurrentInterval())

	rem := s.TurboRemaining()
	assert.Greater(t, rem, 179*time.Second)
	assert.LessOrEqual(t, rem, 180*time.Second)
}

func TestPollScheduler_TurboExtendsDeadline(t *testing.T) {
	s := New()
	s.EnableTurbo(5 * time.Second)
	first := s.TurboRemaining()

	s.EnableTurbo(300 * time.Second)
	assert.Greater(t, s.TurboRemaining(), first)
}

func TestPollScheduler_TurboRevertsAutomatically(t *testing.T) {
	s := New()
	s.EnableTurbo(time.Minute)
	assert.Equal(t, DefaultTurboInterval, s.CurrentInterval())

	// Push the deadline into the past: the next read reverts to base
	// with no explicit transition event.
	s.mu.Lock()
	s.turboUntil = time.Now().Add(-time.Millisecond)
	s.mu.Unlock()

	assert.Equal(t, DefaultBaseInterval, s.CurrentInterval())
	assert.Equal(t, time.Duration(0), s.TurboRemaining())
}

func TestPollScheduler_TurboMinimumOneSecond(t *testing.T) {
	s := New()
	s.EnableTurbo(10 * time.Millisecond)
	assert.Greater(t, s.TurboRemaining(), 900*time.Millisecond)
}

func TestPollScheduler_NextDelayJitterBounds(t *testing.T) {
	s := New()
	s.SetBaseInterval(time.Second)

	for i := 0; i < 50; i++ {
		d := s.NextDelay()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, time.Second+jitterSpan)
	}
}

func TestIdleTracker_Backoff(t *testing.T) {
	idle := NewIdleTracker(3, 100*time.Millisecond, time.Second)

	assert.Equal(t, 100*time.Millisecond, idle.Delay())

	for i := 0; i < 4; i++ {
		idle.Observe(0)
	}
	assert.Equal(t, time.Second, idle.Delay())

	// One candidate resets the streak and the short delay returns.
	idle.Observe(1)
	assert.Equal(t, 0, idle.Streak())
	assert.Equal(t, 100*time.Millisecond, idle.Delay())
}

func TestIdleTracker_ThresholdIsExclusive(t *testing.T) {
	idle := NewIdleTracker(3, 100*time.Millisecond, time.Second)

	for i := 0; i < 3; i++ {
		idle.Observe(0)
	}
	// Streak equal to the threshold still uses the short delay.
	assert.Equal(t, 100*time.Millisecond, idle.Delay())

	idle.Observe(0)
	assert.Equal(t, time.Second, idle.Delay())
}
