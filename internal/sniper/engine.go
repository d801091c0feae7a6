package sniper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/internal/catalog"
	"github.com/paaavkata/gift-autobuy-bot/internal/dispatch"
	"github.com/paaavkata/gift-autobuy-bot/internal/scheduler"
	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// notModifiedDelay is the pause after a 304: the catalog provably did
// not change, so there is nothing to do but come back shortly.
const notModifiedDelay = 500 * time.Millisecond

// Announcer posts sniper progress to a status channel. Best-effort;
// implementations swallow delivery failures.
type Announcer interface {
	Announce(ctx context.Context, text string)
}

// Engine is the single-account competitive acquisition loop: monitor
// the catalog through conditional fetches, pick the most interesting
// limited gift, and race several concurrent purchase attempts at it.
type Engine struct {
	monitor   *catalog.Monitor
	racer     *dispatch.Racer
	idle      *scheduler.IdleTracker
	announcer Announcer
	desired   map[string]int64 // priority gift id -> max price
	logger    *logrus.Logger
}

func NewEngine(monitor *catalog.Monitor, racer *dispatch.Racer, idle *scheduler.IdleTracker,
	announcer Announcer, desired map[string]int64, logger *logrus.Logger) *Engine {

	return &Engine{
		monitor:   monitor,
		racer:     racer,
		idle:      idle,
		announcer: announcer,
		desired:   desired,
		logger:    logger,
	}
}

// Run loops until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Sniper started")

	for {
		if ctx.Err() != nil {
			e.logger.Info("Sniper stopped")
			return nil
		}
		e.tick(ctx)
	}
}

func (e *Engine) tick(ctx context.Context) {
	gifts, err := e.monitor.Fetch(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrNotModified) {
			sleepCtx(ctx, notModifiedDelay)
			return
		}
		e.logger.WithError(err).Warn("Sniper fetch error")
		sleepCtx(ctx, e.idle.Delay())
		return
	}

	candidates := e.selectCandidates(gifts)
	e.idle.Observe(len(candidates))
	if len(candidates) == 0 {
		sleepCtx(ctx, e.idle.Delay())
		return
	}

	target := candidates[0]
	if e.racer.AttemptedRecently(target.ID) {
		e.logger.WithField("gift_id", target.ID).Info("Skip: already attempted very recently")
		sleepCtx(ctx, notModifiedDelay)
		return
	}

	e.announce(ctx, fmt.Sprintf("Trying to buy: %s (%d ⭐)", target.ID, target.Price))
	if e.racer.Dispatch(ctx, target) {
		e.announce(ctx, fmt.Sprintf("✅ Bought: %s", target.ID))
	} else {
		e.announce(ctx, fmt.Sprintf("❌ Failed: %s", target.ID))
	}
	sleepCtx(ctx, notModifiedDelay)
}

// selectCandidates keeps limited gifts that still have supply and
// orders them priority targets first, then cheapest. Unknown remaining
// counts are treated as available.
func (e *Engine) selectCandidates(gifts []models.Gift) []models.Gift {
	var out []models.Gift
	for _, g := range gifts {
		if !g.Limited {
			continue
		}
		if !g.Available() {
			continue
		}
		if maxPrice, ok := e.desired[g.ID]; ok && maxPrice > 0 && g.Price > maxPrice {
			continue
		}
		out = append(out, g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := e.priority(out[i]), e.priority(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i].Price < out[j].Price
	})
	return out
}

func (e *Engine) priority(g models.Gift) int {
	if _, ok := e.desired[g.ID]; ok {
		return 0
	}
	return 1
}

func (e *Engine) announce(ctx context.Context, text string) {
	if e.announcer != nil {
		e.announcer.Announce(ctx, text)
	}
}
