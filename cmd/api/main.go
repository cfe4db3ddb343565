package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"creatorstribe/internal/cache"
	"creatorstribe/internal/config"
	"creatorstribe/internal/creators"
	"creatorstribe/internal/database"
	"creatorstribe/internal/handlers"
	"creatorstribe/internal/jobs"
	"creatorstribe/internal/log"
	"creatorstribe/internal/queue"
	"creatorstribe/internal/repository"
	"creatorstribe/internal/server"
	"creatorstribe/internal/service"
	"creatorstribe/internal/storage"
	"creatorstribe/internal/tablestore"
)

const (
	otpCooldown = 30 * time.Second
	statsTTL    = 5 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if len(cfg.Security.AdminEmails) == 0 {
		logger.Warn().Msg("security.adminemails is empty, any verified mailbox becomes an admin")
	}

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if cfg.Postgres.Migrate {
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	var records tablestore.Store
	switch cfg.Table.Driver {
	case "memory":
		logger.Warn().Msg("creators are kept in memory and will not survive a restart")
		records = tablestore.NewMemoryStore(cfg.Table.ProjectID)
	default:
		records = tablestore.NewPostgresStore(dbPool, cfg.Table.ProjectID)
	}

	creatorRepo := creators.NewRepository(records, cfg.Table.Creators, logger)
	admins := repository.NewAdminRepository(dbPool)
	sessions := repository.NewSessionRepository(dbPool)
	mediaRepo := repository.NewMediaRepository(dbPool)

	outbox := queue.NewPublisher(redisClient, cfg.Worker.Stream)
	authService := service.NewAuthService(admins, sessions, cache.NewOTPStore(redisClient, otpCooldown), outbox, cfg, logger)
	statsService := service.NewStatsService(creatorRepo, cache.NewJSONCache(redisClient, "stats:"), statsTTL, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Dependencies{
		Auth:     authService,
		Creators: creatorRepo,
		Stats:    statsService,
		Uploads:  service.NewUploadService(mediaRepo, objectStore, cfg, logger),
		Media:    mediaRepo,
		Contact:  service.NewContactService(outbox, cfg.Mail.Inbox, logger),
		Checks: []handlers.HealthCheck{
			{Name: "database", Ping: dbPool.Ping},
			{Name: "cache", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
			{Name: "storage", Ping: objectStore.Ping},
		},
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(cfg.Jobs, sessions, statsService, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop(shutdownCtx)

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
