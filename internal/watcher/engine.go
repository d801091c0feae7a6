package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/internal/catalog"
	"github.com/paaavkata/gift-autobuy-bot/internal/dispatch"
	"github.com/paaavkata/gift-autobuy-bot/internal/matcher"
	"github.com/paaavkata/gift-autobuy-bot/internal/scheduler"
	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// Store is the repository slice the watcher reads each tick.
type Store interface {
	AutobuyUsersWithRules(ctx context.Context) ([]models.AutobuyUser, error)
	AppendLog(ctx context.Context, level, message string) error
}

// Engine drives the acquisition loop: one poll tick fetches and diffs
// the catalog, matches new gifts against every autobuy user, and
// dispatches the eligible pairs sequentially. Ticks never overlap; the
// loop is strictly one iteration at a time.
type Engine struct {
	differ     *catalog.Differ
	matcher    *matcher.Matcher
	dispatcher *dispatch.Dispatcher
	sched      *scheduler.PollScheduler
	store      Store
	logger     *logrus.Logger
}

func NewEngine(differ *catalog.Differ, m *matcher.Matcher, dispatcher *dispatch.Dispatcher,
	sched *scheduler.PollScheduler, store Store, logger *logrus.Logger) *Engine {

	return &Engine{
		differ:     differ,
		matcher:    m,
		dispatcher: dispatcher,
		sched:      sched,
		store:      store,
		logger:     logger,
	}
}

// Run polls until the context is cancelled. Any iteration error is
// logged and swallowed; the next tick gets a fresh chance. Cancellation
// is cooperative: it cuts the inter-tick sleep short but never
// interrupts an in-flight gateway call.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Watcher started")
	e.persistLog(ctx, "INFO", "Watcher started")

	for {
		if err := e.processTick(ctx); err != nil {
			e.logger.WithError(err).Warn("Watcher iteration error")
			e.persistLog(ctx, "WARN", fmt.Sprintf("watcher iteration error: %v", err))
		}

		delay := e.sched.NextDelay()
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			e.logger.Info("Watcher stopped")
			e.persistLog(context.WithoutCancel(ctx), "INFO", "Watcher stopped")
			return nil
		case <-timer.C:
		}
	}
}

func (e *Engine) processTick(ctx context.Context) error {
	fresh, err := e.differ.Poll(ctx)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		return nil
	}

	ids := make([]string, 0, len(fresh))
	for _, g := range fresh {
		ids = append(ids, g.ID)
	}
	e.logger.WithField("gift_ids", ids).Info("New gifts detected")
	e.persistLog(ctx, "INFO", "New gifts: "+strings.Join(ids, ", "))

	users, err := e.store.AutobuyUsersWithRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load autobuy users: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	for _, gift := range fresh {
		for _, c := range e.matcher.Match(gift, users) {
			e.dispatcher.Dispatch(ctx, c)
		}
	}
	return nil
}

func (e *Engine) persistLog(ctx context.Context, level, message string) {
	if err := e.store.AppendLog(ctx, level, message); err != nil {
		e.logger.WithError(err).Debug("Failed to persist watcher log")
	}
}

// Administrative controls the chat front end calls directly.

func (e *Engine) SetBaseInterval(d time.Duration) { e.sched.SetBaseInterval(d) }
func (e *Engine) EnableTurbo(d time.Duration)     { e.sched.EnableTurbo(d) }

func (e *Engine) CurrentPollInterval() time.Duration { return e.sched.CurrentInterval() }
func (e *Engine) TurboRemaining() time.Duration      { return e.sched.TurboRemaining() }
