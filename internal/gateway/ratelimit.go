package gateway

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultGlobalRPS is the Bot API ceiling for outbound calls.
	DefaultGlobalRPS = 25

	// perChatInterval is the minimum spacing between sends to one chat.
	perChatInterval = time.Second
)

// RateLimiter serializes outbound API calls so the process never exceeds
// the global requests-per-second ceiling nor the per-chat spacing.
//
// It works by reservation: each Acquire computes its wait under the lock,
// commits the reserved future timestamps, and only then sleeps. Concurrent
// acquirers therefore queue on the reservation, not on each other's
// sleeps, and can never pass under the ceiling together. There is no
// queue bound; callers pile up as needed.
type RateLimiter struct {
	mu         sync.Mutex
	globalGap  time.Duration
	lastGlobal time.Time
	lastChat   map[int64]time.Time
}

func NewRateLimiter(globalRPS int) *RateLimiter {
	if globalRPS <= 0 {
		globalRPS = DefaultGlobalRPS
	}
	return &RateLimiter{
		globalGap: time.Second / time.Duration(globalRPS),
		lastChat:  make(map[int64]time.Time),
	}
}

// Acquire blocks until a send slot is available. Passing a chat id
// additionally enforces the per-chat spacing for that recipient.
// It returns early with ctx.Err() if the context is cancelled while
// waiting; the reservation is kept either way.
func (rl *RateLimiter) Acquire(ctx context.Context, chatID ...int64) error {
	rl.mu.Lock()
	now := time.Now()

	var wait time.Duration
	if !rl.lastGlobal.IsZero() {
		if d := rl.lastGlobal.Add(rl.globalGap).Sub(now); d > wait {
			wait = d
		}
	}
	for _, id := range chatID {
		if last, ok := rl.lastChat[id]; ok {
			if d := last.Add(perChatInterval).Sub(now); d > wait {
				wait = d
			}
		}
	}

	release := now.Add(wait)
	rl.lastGlobal = release
	for _, id := range chatID {
		rl.lastChat[id] = release
	}
	rl.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
