package sniper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/internal/gateway"
)

// floodWaitMargin is added on top of the provider-mandated wait when a
// purchase attempt gets flood-limited, so the next attempt does not
// land on the window edge.
const floodWaitMargin = time.Second

// Buyer performs one purchase attempt on behalf of the sniping account.
// Attempts run concurrently inside a racing dispatch, so everything
// here must tolerate a cancelled context mid-flight.
type Buyer struct {
	client      *gateway.Client
	recipientID int64
	logger      *logrus.Logger
}

func NewBuyer(client *gateway.Client, recipientID int64, logger *logrus.Logger) *Buyer {
	return &Buyer{
		client:      client,
		recipientID: recipientID,
		logger:      logger,
	}
}

// BuyGift attempts a single purchase. A flood-wait reply sleeps the
// provider-specified duration plus a fixed margin before reporting
// failure; the race decides whether anyone retries.
func (b *Buyer) BuyGift(ctx context.Context, giftID string, price int64) bool {
	payload := map[string]any{
		"user_id": b.recipientID,
		"gift_id": giftID,
	}

	resp, err := b.client.Post(ctx, "sendGift", payload, b.recipientID)
	if err != nil {
		b.logger.WithError(err).WithField("gift_id", giftID).Warn("Buy attempt transport error")
		return false
	}
	if resp.Flooded() {
		b.logger.WithFields(logrus.Fields{
			"gift_id":     giftID,
			"retry_after": resp.RetryAfterSeconds(),
		}).Error("Flood wait on buy attempt")
		sleepCtx(ctx, floodWaitMargin)
		return false
	}
	if !resp.OK {
		b.logger.WithFields(logrus.Fields{
			"gift_id":     giftID,
			"error_code":  resp.ErrorCode,
			"description": resp.Description,
		}).Warn("Buy attempt rejected")
		return false
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
