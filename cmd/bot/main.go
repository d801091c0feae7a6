package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/internal/catalog"
	"github.com/paaavkata/gift-autobuy-bot/internal/config"
	"github.com/paaavkata/gift-autobuy-bot/internal/database"
	"github.com/paaavkata/gift-autobuy-bot/internal/dispatch"
	"github.com/paaavkata/gift-autobuy-bot/internal/gateway"
	"github.com/paaavkata/gift-autobuy-bot/internal/health"
	"github.com/paaavkata/gift-autobuy-bot/internal/maintenance"
	"github.com/paaavkata/gift-autobuy-bot/internal/matcher"
	"github.com/paaavkata/gift-autobuy-bot/internal/notify"
	"github.com/paaavkata/gift-autobuy-bot/internal/scheduler"
	"github.com/paaavkata/gift-autobuy-bot/internal/sniper"
	"github.com/paaavkata/gift-autobuy-bot/internal/watcher"
	"github.com/paaavkata/gift-autobuy-bot/pkg/utils"
)

func main() {
	logger := utils.NewLogger("gift-autobuy-bot")

	cfg := config.Load()
	if cfg.BotToken == "" {
		logger.Fatal("BOT_TOKEN is required")
	}
	logger.WithFields(logrus.Fields{
		"base_interval": cfg.BaseInterval,
		"global_rps":    cfg.GlobalRPS,
		"sniper":        cfg.SniperEndpoint != "",
	}).Info("Configuration loaded")

	db, err := database.NewConnection(cfg.DbUri, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.InitSchema(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to initialize database schema")
	}

	repo := database.NewRepository(db, logger)

	limiter := gateway.NewRateLimiter(cfg.GlobalRPS)
	client := gateway.NewClient(gateway.Config{Token: cfg.BotToken}, limiter, repo, logger)

	var notifier *notify.Telegram
	notifier, err = notify.NewTelegram(cfg.BotToken, cfg.SniperChannel, logger)
	if err != nil {
		logger.WithError(err).Warn("Notification bot unavailable, outcomes will not be delivered")
		notifier = nil
	}

	sched := scheduler.New()
	sched.SetBaseInterval(cfg.BaseInterval)

	differ := catalog.NewDiffer(client, repo, logger)
	m := matcher.New(logger)

	var outcomes dispatch.Notifier
	if notifier != nil {
		outcomes = notifier
	}
	dispatcher := dispatch.NewDispatcher(client, repo, outcomes, logger)

	engine := watcher.NewEngine(differ, m, dispatcher, sched, repo, logger)
	go func() {
		if err := engine.Run(ctx); err != nil {
			logger.WithError(err).Error("Watcher stopped with error")
		}
	}()

	if cfg.SniperEndpoint != "" {
		monitor := catalog.NewMonitor(cfg.SniperEndpoint, logger)
		buyer := sniper.NewBuyer(client, cfg.SniperRecipientID, logger)
		racer := dispatch.NewRacer(buyer, cfg.RaceWidth, cfg.AttemptCooldown, logger)
		idle := scheduler.NewIdleTracker(scheduler.DefaultIdleThreshold,
			scheduler.DefaultIdleShort, scheduler.DefaultIdleLong)

		var announcer sniper.Announcer
		if notifier != nil {
			announcer = notifier
		}
		snipe := sniper.NewEngine(monitor, racer, idle, announcer, nil, logger)
		go func() {
			if err := snipe.Run(ctx); err != nil {
				logger.WithError(err).Error("Sniper stopped with error")
			}
		}()
	}

	pruner := maintenance.NewPruner(repo, cfg.LogRetention, logger)
	if err := pruner.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start maintenance pruner")
	}

	checker := health.NewChecker(db, logger)
	healthServer := checker.StartServer(cfg.HealthPort)

	if notifier != nil {
		notifier.SendTo(cfg.LogChatID, "🚀 Bot started")
	}
	logger.Info("Gift autobuy bot started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	cancel()
	pruner.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Health server shutdown failed")
	}

	// Give in-flight gateway calls a moment to settle.
	time.Sleep(2 * time.Second)

	logger.Info("Gift autobuy bot stopped")
}
