package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

const (
	// DefaultRaceWidth is how many concurrent attempts a racing
	// dispatch launches for one target.
	DefaultRaceWidth = 3

	// DefaultCooldown is the window during which a gift that was
	// already attempted is skipped, so overlapping ticks cannot burn
	// rate budget on provider-side duplicate errors.
	DefaultCooldown = 60 * time.Second
)

// Buyer executes one purchase attempt against the provider.
type Buyer interface {
	BuyGift(ctx context.Context, giftID string, price int64) bool
}

// Racer issues several concurrent purchase attempts for the same target
// and accepts the first success. The attempt timestamp is recorded
// before launching, not after completion, which keeps overlapping ticks
// from both passing the cooldown gate. The cooldown map is in-memory
// only and resets with the process.
type Racer struct {
	buyer    Buyer
	width    int
	cooldown time.Duration
	logger   *logrus.Logger

	mu      sync.Mutex
	lastTry map[string]time.Time
}

func NewRacer(buyer Buyer, width int, cooldown time.Duration, logger *logrus.Logger) *Racer {
	if width <= 0 {
		width = DefaultRaceWidth
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Racer{
		buyer:    buyer,
		width:    width,
		cooldown: cooldown,
		logger:   logger,
		lastTry:  make(map[string]time.Time),
	}
}

// AttemptedRecently reports whether the gift is still inside its
// cooldown window.
func (r *Racer) AttemptedRecently(giftID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, ok := r.lastTry[giftID]
	return ok && time.Since(last) < r.cooldown
}

// Dispatch races the configured number of attempts for one gift and
// returns true as soon as any attempt succeeds, cancelling the rest.
// Cancellation is best-effort: an attempt already committed on the
// provider side is not rolled back. A gift inside its cooldown window
// is skipped without touching the gateway.
func (r *Racer) Dispatch(ctx context.Context, gift models.Gift) bool {
	r.mu.Lock()
	if last, ok := r.lastTry[gift.ID]; ok && time.Since(last) < r.cooldown {
		r.mu.Unlock()
		r.logger.WithField("gift_id", gift.ID).Info("Skip: attempted very recently")
		return false
	}
	r.lastTry[gift.ID] = time.Now()
	r.mu.Unlock()

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan bool, r.width)
	var wg sync.WaitGroup
	for i := 0; i < r.width; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.buyer.BuyGift(raceCtx, gift.ID, gift.Price)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for ok := range results {
		if ok {
			cancel()
			r.logger.WithField("gift_id", gift.ID).Info("Racing purchase succeeded")
			return true
		}
	}

	r.logger.WithField("gift_id", gift.ID).Warn("All racing attempts failed")
	return false
}
