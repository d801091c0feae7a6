package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Store is the pruning surface of the repository.
type Store interface {
	PruneOldLogs(ctx context.Context, retention time.Duration) (int64, error)
}

// Pruner trims aged log rows on a nightly schedule so the logs table
// does not grow without bound.
type Pruner struct {
	store     Store
	cron      *cron.Cron
	retention time.Duration
	logger    *logrus.Logger
}

func NewPruner(store Store, retention time.Duration, logger *logrus.Logger) *Pruner {
	return &Pruner{
		store:     store,
		cron:      cron.New(cron.WithSeconds()),
		retention: retention,
		logger:    logger,
	}
}

func (p *Pruner) Start(ctx context.Context) error {
	// Nightly at 02:00, mirroring the quiet window of the provider.
	_, err := p.cron.AddFunc("0 0 2 * * *", func() {
		p.prune(ctx)
	})
	if err != nil {
		return err
	}

	p.cron.Start()
	p.logger.WithField("retention", p.retention).Info("Maintenance pruner started")
	return nil
}

func (p *Pruner) Stop() {
	p.logger.Info("Stopping maintenance pruner")
	p.cron.Stop()
}

func (p *Pruner) prune(ctx context.Context) {
	start := time.Now()
	removed, err := p.store.PruneOldLogs(ctx, p.retention)
	if err != nil {
		p.logger.WithError(err).Error("Log pruning failed")
		return
	}

	p.logger.WithFields(logrus.Fields{
		"removed":     removed,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Log pruning cycle completed")
}
