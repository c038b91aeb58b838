package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/config"
	"github.com/codequestlab/codequest-backend/internal/database"
	"github.com/codequestlab/codequest-backend/internal/handler"
	"github.com/codequestlab/codequest-backend/internal/judge"
	"github.com/codequestlab/codequest-backend/internal/logger"
	"github.com/codequestlab/codequest-backend/internal/repository"
	"github.com/codequestlab/codequest-backend/internal/router"
	"github.com/codequestlab/codequest-backend/internal/service"
	"github.com/codequestlab/codequest-backend/internal/validator"
	"github.com/codequestlab/codequest-backend/internal/worker"
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
		Msg("Starting Codequest Backend")

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

	// ─── Initialize Store ──────────────────────────────────────────────
	store := repository.NewPostgresStore(pool)

	// ─── Initialize Judge Client ───────────────────────────────────────
	judgeClient := judge.NewClient(cfg, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, store)
	progressService := service.NewProgressService(store, log)
	achievementService := service.NewAchievementService(store, log)
	evaluationService := service.NewEvaluationService(judgeClient, log)
	submissionService := service.NewSubmissionService(store, evaluationService, progressService, achievementService, rdb, cfg, log)
	courseService := service.NewCourseService(store, progressService, log)
	certificateService := service.NewCertificateService(store, progressService, achievementService, rdb, log)
	dashboardService := service.NewDashboardService(store, log)
	leaderboardService := service.NewLeaderboardService(store, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:             handler.NewAuthHandler(authService, store),
		Course:           handler.NewCourseHandler(courseService),
		Submission:       handler.NewSubmissionHandler(submissionService),
		Dashboard:        handler.NewDashboardHandler(dashboardService),
		Leaderboard:      handler.NewLeaderboardHandler(leaderboardService),
		Achievement:      handler.NewAchievementHandler(achievementService),
		Certificate:      handler.NewCertificateHandler(certificateService),
		AdminCourse:      handler.NewAdminCourseHandler(courseService),
		AdminTask:        handler.NewAdminTaskHandler(courseService),
		AdminAchievement: handler.NewAdminAchievementHandler(achievementService),
		WS:               handler.NewWSHandler(rdb, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	leaderboardWorker := worker.NewLeaderboardWorker(store, rdb, log)
	go leaderboardWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
