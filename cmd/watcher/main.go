package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/chanwatch/chanwatch/internal/api"
	"github.com/chanwatch/chanwatch/internal/config"
	"github.com/chanwatch/chanwatch/internal/cursor"
	"github.com/chanwatch/chanwatch/internal/database"
	"github.com/chanwatch/chanwatch/internal/ingest"
	"github.com/chanwatch/chanwatch/internal/logger"
	"github.com/chanwatch/chanwatch/internal/migrator"
	"github.com/chanwatch/chanwatch/internal/nats"
	"github.com/chanwatch/chanwatch/internal/publisher"
	"github.com/chanwatch/chanwatch/internal/repository"
	"github.com/chanwatch/chanwatch/internal/telegram"
	"github.com/chanwatch/chanwatch/migrations"
)

func main() {
	_ = godotenv.Load()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting channel watcher")

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Connect to database and run migrations
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	mig, err := migrator.NewWithFS(migrations.FS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load migrations")
	}
	if err := mig.Up(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// 5. Open the cursor store
	cursors, err := cursor.Open(cfg.CursorDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open cursor store")
	}
	defer cursors.Close()

	// 6. Connect to NATS
	nc, err := nats.New(ctx, cfg.NatsURL)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
		nc = nil
	} else {
		defer nc.Close()
	}

	var pub ingest.EventPublisher
	if nc != nil {
		if err := nc.EnsureStream(ctx, publisher.StreamName, publisher.ChanwatchStreamSubjects()); err != nil {
			log.Warn().Err(err).Msg("failed to ensure posts stream")
		}
		pub = publisher.NewNATSPublisher(nc)
	}

	// 7. Initialize repositories
	channelsRepo := repository.NewChannelsRepository(db.Pool)
	postsRepo := repository.NewPostsRepository(db.Pool)

	// 8. Initialize telegram
	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		log.Fatal().Msg("TG_API_ID and TG_API_HASH are required")
	}

	tgManager := telegram.NewManager(cfg, db.GORM)
	if err := tgManager.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("telegram init failed")
	}
	if tgManager.GetStatus() != telegram.StatusReady {
		log.Fatal().Msg("no telegram session found, run tg-auth first")
	}

	tgClient := telegram.NewClient(tgManager)
	defer tgClient.Close()

	// 9. Initialize sync engine and runner
	svc := ingest.NewService(
		tgClient,
		cursors,
		channelsRepo,
		postsRepo,
		pub,
		ingest.Limits{
			HistoryPageSize:  cfg.HistoryPageSize,
			RecoveryPageSize: cfg.RecoveryPageSize,
		},
		log,
	)
	runner := ingest.NewRunner(svc, cfg.PollInterval, log)

	// 10. Start the ops server
	deps := &api.Dependencies{
		ChannelsRepo:   channelsRepo,
		Runner:         runner,
		TelegramClient: tgClient,
	}
	if nc != nil {
		deps.NATS = nc
	}
	server := api.NewServer(cfg.HTTPPort, deps, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("ops server error")
		}
	}()

	// 11. Run passes until shutdown
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("runner stopped")
	}

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("ops server shutdown failed")
	}

	log.Info().Msg("shutdown complete")
}
