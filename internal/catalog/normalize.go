package catalog

import (
	"fmt"
	"strconv"

	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// Catalog payloads differ between provider variants: the official Bot
// API, mirror endpoints and scraped feeds all name the same attributes
// differently. Each logical attribute resolves through an ordered alias
// list; the first present, non-null key wins. No alias present yields an
// explicit unknown, never a silently wrong default.
var (
	idKeys     = []string{"id", "gift_id", "slug"}
	priceKeys  = []string{"star_count", "price_stars", "price"}
	supplyKeys = []string{
		"supply", "remaining", "remaining_count", "left",
		"stock_left", "available", "available_count",
	}
	limitedKeys = []string{"limited", "is_limited", "limited_supply", "has_supply"}
)

// Normalize resolves one raw catalog entry into the canonical Gift
// shape. The second return is false when no id alias is present, in
// which case the entry is skipped.
func Normalize(raw map[string]any) (models.Gift, bool) {
	id, ok := firstString(raw, idKeys)
	if !ok {
		return models.Gift{}, false
	}

	gift := models.Gift{
		ID:    id,
		Title: extractTitle(raw),
	}

	if price, ok := firstInt(raw, priceKeys); ok {
		gift.Price = price
	}

	if supply, ok := firstInt(raw, supplyKeys); ok {
		gift.Supply = &supply
	}

	for _, key := range limitedKeys {
		v, present := raw[key]
		if !present || v == nil {
			continue
		}
		gift.LimitedKnown = true
		if b, ok := v.(bool); ok && b {
			gift.Limited = true
		}
	}
	// A numeric supply implies a limited run even without an explicit flag.
	if gift.Supply != nil {
		gift.Limited = true
		gift.LimitedKnown = true
	}

	return gift, true
}

// extractTitle falls back to the sticker emoji: the Bot API gift object
// carries no display name of its own.
func extractTitle(raw map[string]any) string {
	if title, ok := raw["title"].(string); ok && title != "" {
		return title
	}
	if sticker, ok := raw["sticker"].(map[string]any); ok {
		if emoji, ok := sticker["emoji"].(string); ok && emoji != "" {
			return emoji
		}
	}
	return "Gift"
}

func firstString(raw map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		v, present := raw[key]
		if !present || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatInt(int64(s), 10), true
		}
	}
	return "", false
}

func firstInt(raw map[string]any, keys []string) (int64, bool) {
	for _, key := range keys {
		v, present := raw[key]
		if !present || v == nil {
			continue
		}
		if n, ok := toInt64(v); ok {
			return n, true
		}
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case fmt.Stringer:
		parsed, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
