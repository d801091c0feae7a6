package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/internal/gateway"
	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// Store is the slice of the repository the differ needs.
type Store interface {
	KnownGiftIDs(ctx context.Context) (map[string]struct{}, error)
	UpsertGiftsCache(ctx context.Context, gifts []models.Gift) error
}

// Differ turns raw catalog polls into a stream of newly observed gifts.
// The persisted known-id set is the sole diff key; price or title drift
// on an already-known gift never re-triggers a "new" signal.
type Differ struct {
	client *gateway.Client
	store  Store
	logger *logrus.Logger
}

func NewDiffer(client *gateway.Client, store Store, logger *logrus.Logger) *Differ {
	return &Differ{
		client: client,
		store:  store,
		logger: logger,
	}
}

// Poll fetches the current catalog and returns the gifts not yet in the
// known set, in catalog order. Every fetched gift, new or not, is
// upserted into the cache so field drift is persisted too. Provider
// failures come back as an empty result; the loop retries next tick.
func (d *Differ) Poll(ctx context.Context) ([]models.Gift, error) {
	gifts, err := d.fetch(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("Catalog fetch failed")
		return nil, nil
	}
	if len(gifts) == 0 {
		return nil, nil
	}

	known, err := d.store.KnownGiftIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load known gift ids: %w", err)
	}

	if err := d.store.UpsertGiftsCache(ctx, gifts); err != nil {
		return nil, fmt.Errorf("failed to upsert gifts cache: %w", err)
	}

	var fresh []models.Gift
	for _, g := range gifts {
		if _, seen := known[g.ID]; !seen {
			fresh = append(fresh, g)
		}
	}
	return fresh, nil
}

func (d *Differ) fetch(ctx context.Context) ([]models.Gift, error) {
	resp, err := d.client.Post(ctx, "getAvailableGifts", map[string]any{})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("getAvailableGifts not ok: %d %s", resp.ErrorCode, resp.Description)
	}
	return ParseGiftList(resp.Result)
}

// ParseGiftList decodes a result payload that is either a bare array of
// gifts or an object wrapping one under "gifts" or "items".
func ParseGiftList(result json.RawMessage) ([]models.Gift, error) {
	if len(result) == 0 {
		return nil, nil
	}

	var entries []map[string]any
	if err := json.Unmarshal(result, &entries); err != nil {
		var wrapper struct {
			Gifts []map[string]any `json:"gifts"`
			Items []map[string]any `json:"items"`
		}
		if err := json.Unmarshal(result, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode gift list: %w", err)
		}
		entries = wrapper.Gifts
		if entries == nil {
			entries = wrapper.Items
		}
	}

	gifts := make([]models.Gift, 0, len(entries))
	for _, raw := range entries {
		if gift, ok := Normalize(raw); ok {
			gifts = append(gifts, gift)
		}
	}
	return gifts, nil
}
