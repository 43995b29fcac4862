package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/memonize/memonize/internal/catalog"
	"github.com/memonize/memonize/internal/config"
	"github.com/memonize/memonize/internal/delivery/telegram"
	"github.com/memonize/memonize/internal/engine"
	"github.com/memonize/memonize/internal/infra/postgres"
	"github.com/memonize/memonize/internal/logger"
	"github.com/memonize/memonize/internal/repository"
	"github.com/memonize/memonize/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zapLogger.Sync() }()

	cat, err := catalog.Load()
	if err != nil {
		zapLogger.Fatal("failed to load catalog", zap.Error(err))
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		zapLogger.Fatal("failed to create telegram bot", zap.Error(err))
	}

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{Command: "phases", Description: "The six training phases"},
		{Command: "categories", Description: "Browse the table by category"},
		{Command: "table", Description: "Full reference table"},
		{Command: "mnemonic", Description: "Attach a memory hook to a number"},
		{Command: "quiz", Description: "Multiple choice inside one category"},
		{Command: "mixed", Description: "Multiple choice across the whole table"},
		{Command: "neighbors", Description: "Name the words before and after"},
		{Command: "oddoneout", Description: "Spot the item from another category"},
		{Command: "sprint", Description: "60 second speed drill"},
		{Command: "rapid", Description: "30 second burst drill"},
		{Command: "best", Description: "Your speed records"},
		{Command: "progress", Description: "Per-category progress"},
		{Command: "streak", Description: "Answer streaks"},
		{Command: "help", Description: "All commands"},
	}

	if _, err = bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		zapLogger.Warn("failed to set bot commands", zap.Error(err))
	}

	zapLogger.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		zapLogger.Fatal("database url is not configured", zap.Error(err))
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zapLogger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		zapLogger.Fatal("failed to ensure schema", zap.Error(err))
	}

	progressRepo := repository.NewProgressRepository(pool)

	localStore, err := storage.NewLocalStore(cfg.LocalDBPath)
	if err != nil {
		zapLogger.Fatal("failed to open local store", zap.Error(err))
	}
	defer func() { _ = localStore.Close() }()

	engines := storage.NewEngineRegistry(func(userID string) *engine.Engine {
		eng := engine.New(cat, userID, localStore, progressRepo, zapLogger, engine.Options{
			SyncDebounce: cfg.Training.SyncDebounce,
		})

		// First contact on this machine: pull the remote blob if there is
		// no local snapshot yet.
		state, err := localStore.LoadState(userID)
		if err == nil && state == nil {
			loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := eng.LoadFromRemote(loadCtx); err != nil {
				zapLogger.Warn("starting with local defaults",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
		}

		return eng
	})

	sessions := storage.NewSessionStorage()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	handler := telegram.NewHandler(bot, zapLogger, cat, engines, sessions, cfg.Training, rng)
	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("telegram handler exited", zap.Error(err))
	}

	zapLogger.Info("shutdown signal received, flushing pending syncs")
	engines.FlushAll()
}
