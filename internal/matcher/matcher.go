package matcher

import (
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// Matcher decides which autobuy users a new gift should be bought for.
type Matcher struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// Match evaluates one gift against every autobuy user independently: a
// single gift can be dispatched to many users when it fits all their
// rules and budgets. Eligibility requires the price inside the user's
// bounds and a balance covering it. The only-limited rule applies only
// when the catalog actually reports limited status; the Bot API variant
// does not, and must not lock everyone out.
func (m *Matcher) Match(gift models.Gift, users []models.AutobuyUser) []models.Candidate {
	var out []models.Candidate
	for _, u := range users {
		if gift.Price < u.MinPrice || gift.Price > u.MaxPrice {
			continue
		}
		if u.Balance < gift.Price {
			continue
		}
		if u.OnlyLimited && gift.LimitedKnown && !gift.Limited {
			continue
		}
		out = append(out, models.Candidate{User: u, Gift: gift})
	}

	if len(out) > 0 {
		m.logger.WithFields(logrus.Fields{
			"gift_id":    gift.ID,
			"price":      gift.Price,
			"candidates": len(out),
		}).Debug("Gift matched autobuy users")
	}
	return out
}
