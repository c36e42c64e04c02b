package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepdesk/session-backend/internal/client"
	"github.com/prepdesk/session-backend/internal/config"
	"github.com/prepdesk/session-backend/internal/database"
	"github.com/prepdesk/session-backend/internal/engine"
	"github.com/prepdesk/session-backend/internal/handler"
	"github.com/prepdesk/session-backend/internal/logger"
	"github.com/prepdesk/session-backend/internal/repository"
	"github.com/prepdesk/session-backend/internal/router"
	"github.com/prepdesk/session-backend/internal/service"
	"github.com/prepdesk/session-backend/internal/store"
	"github.com/prepdesk/session-backend/internal/validator"
	"github.com/prepdesk/session-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting PrepDesk Session Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	resultRepo := repository.NewResultRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)

	// ─── Initialize Content API Client ─────────────────────────────────
	contentAPI := client.NewContentAPI(cfg.ContentAPIBaseURL, cfg.ContentAPITimeout, log)

	// ─── Initialize Services ──────────────────────────────────────────
	storeFor := func(ownerID string) engine.ProgressStore {
		return store.NewRedisProgressStore(rdb, ownerID, cfg.SnapshotTTL)
	}
	sessionService := service.NewSessionService(contentAPI, storeFor, resultRepo, rdb, cfg, log)
	resultService := service.NewResultService(resultRepo, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session: handler.NewSessionHandler(sessionService),
		Result:  handler.NewResultHandler(resultService, log),
		WS:      handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	snapshotWorker := worker.NewSnapshotWorker(snapshotRepo, rdb, log)
	syncWorker := worker.NewResultSyncWorker(resultRepo, contentAPI, rdb, log)

	go snapshotWorker.Start(workerCtx)
	go syncWorker.Start(workerCtx)

	// Session registry janitor.
	go sessionService.Run(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop session timers and background workers, wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
