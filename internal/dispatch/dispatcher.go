package dispatch

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// Gateway is the purchase surface the dispatcher drives.
type Gateway interface {
	SendGift(ctx context.Context, userID int64, giftID, text string) bool
}

// Store is the balance-accounting slice of the repository.
type Store interface {
	AddBalance(ctx context.Context, userID int64, delta int64) error
}

// Notifier delivers per-outcome events to the user-facing front end.
// Implementations must swallow their own delivery failures; a lost
// notification never affects balance accounting.
type Notifier interface {
	NotifyOutcome(ctx context.Context, userID int64, gift models.Gift, success bool)
}

// Dispatcher executes single purchases: one gateway call per (user,
// gift) pair, debiting the balance only after a confirmed success.
type Dispatcher struct {
	gateway  Gateway
	store    Store
	notifier Notifier
	logger   *logrus.Logger
}

func NewDispatcher(gateway Gateway, store Store, notifier Notifier, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		gateway:  gateway,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Dispatch buys the candidate's gift for its user. The debit happens
// only after the provider confirmed the purchase, never speculatively,
// so a failed call leaves the balance untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, c models.Candidate) bool {
	ok := d.gateway.SendGift(ctx, c.User.UserID, c.Gift.ID, "🎁 Новый подарок!")
	if !ok {
		d.logger.WithFields(logrus.Fields{
			"user_id": c.User.UserID,
			"gift_id": c.Gift.ID,
		}).Warn("Gift purchase failed")
		if d.notifier != nil {
			d.notifier.NotifyOutcome(ctx, c.User.UserID, c.Gift, false)
		}
		return false
	}

	if err := d.store.AddBalance(ctx, c.User.UserID, -c.Gift.Price); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": c.User.UserID,
			"gift_id": c.Gift.ID,
		}).Error("Failed to debit balance after purchase")
	}

	d.logger.WithFields(logrus.Fields{
		"user_id": c.User.UserID,
		"gift_id": c.Gift.ID,
		"price":   c.Gift.Price,
	}).Info("Gift purchased")

	if d.notifier != nil {
		d.notifier.NotifyOutcome(ctx, c.User.UserID, c.Gift, true)
	}
	return true
}
