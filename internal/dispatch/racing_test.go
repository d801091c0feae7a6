package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// countingBuyer succeeds on exactly one attempt and counts calls.
type countingBuyer struct {
	calls     atomic.Int32
	successes atomic.Int32
	winner    int32 // which call number succeeds, 0 = never
	delay     time.Duration
}

func (b *countingBuyer) BuyGift(ctx context.Context, giftID string, price int64) bool {
	n := b.calls.Add(1)
	if b.delay > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(b.delay):
		}
	}
	if n == b.winner {
		b.successes.Add(1)
		return true
	}
	return false
}

func TestRacer_Dispatch_FirstSuccessWins(t *testing.T) {
	buyer := &countingBuyer{winner: 2}
	racer := NewRacer(buyer, 3, time.Minute, newTestLogger())

	ok := racer.Dispatch(context.Background(), models.Gift{ID: "g1", Price: 100})

	assert.True(t, ok)
	assert.Equal(t, int32(1), buyer.successes.Load(), "exactly one success recorded")
	assert.LessOrEqual(t, buyer.calls.Load(), int32(3))
}

func TestRacer_Dispatch_AllAttemptsFail(t *testing.T) {
	buyer := &countingBuyer{winner: 0}
	racer := NewRacer(buyer, 3, time.Minute, newTestLogger())

	ok := racer.Dispatch(context.Background(), models.Gift{ID: "g1", Price: 100})

	assert.False(t, ok)
	assert.Equal(t, int32(3), buyer.calls.Load())
}

func TestRacer_Dispatch_CooldownSkipsWithoutGatewayCall(t *testing.T) {
	buyer := &countingBuyer{winner: 1}
	racer := NewRacer(buyer, 3, time.Minute, newTestLogger())

	assert.True(t, racer.Dispatch(context.Background(), models.Gift{ID: "g1", Price: 100}))
	callsAfterFirst := buyer.calls.Load()

	// Second dispatch for the same gift inside the window is skipped
	// before any attempt launches.
	assert.False(t, racer.Dispatch(context.Background(), models.Gift{ID: "g1", Price: 100}))
	assert.Equal(t, callsAfterFirst, buyer.calls.Load())
}

func TestRacer_Dispatch_CooldownExpires(t *testing.T) {
	buyer := &countingBuyer{winner: 1}
	racer := NewRacer(buyer, 1, 30*time.Millisecond, newTestLogger())

	assert.True(t, racer.Dispatch(context.Background(), models.Gift{ID: "g1", Price: 100}))
	time.Sleep(50 * time.Millisecond)

	// Window elapsed, the gate opens again.
	racer.Dispatch(context.Background(), models.Gift{ID: "g1", Price: 100})
	assert.Equal(t, int32(2), buyer.calls.Load())
}

func TestRacer_Dispatch_StampedBeforeLaunch(t *testing.T) {
	// Attempts that take a while must not let a second dispatch
	// through the gate: the timestamp is recorded before launching.
	buyer := &countingBuyer{winner: 0, delay: 50 * time.Millisecond}
	racer := NewRacer(buyer, 2, time.Minute, newTestLogger())

	done := make(chan bool)
	go func() { done <- racer.Dispatch(context.Background(), models.Gift{ID: "g1", Price: 100}) }()

	time.Sleep(10 * time.Millisecond)
	assert.True(t, racer.AttemptedRecently("g1"))
	assert.False(t, racer.Dispatch(context.Background(), models.Gift{ID: "g1", Price: 100}))

	<-done
	assert.Equal(t, int32(2), buyer.calls.Load())
}

func TestRacer_AttemptedRecently(t *testing.T) {
	racer := NewRacer(&countingBuyer{}, 1, time.Minute, newTestLogger())
	assert.False(t, racer.AttemptedRecently("never-seen"))
}
