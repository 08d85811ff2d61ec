package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crackcu/portal-backend/internal/config"
	"github.com/crackcu/portal-backend/internal/database"
	"github.com/crackcu/portal-backend/internal/handler"
	"github.com/crackcu/portal-backend/internal/logger"
	"github.com/crackcu/portal-backend/internal/notification"
	"github.com/crackcu/portal-backend/internal/repository"
	"github.com/crackcu/portal-backend/internal/router"
	"github.com/crackcu/portal-backend/internal/service"
	"github.com/crackcu/portal-backend/internal/validator"
	"github.com/crackcu/portal-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.AppName)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("mail_enabled", cfg.MailEnabled()).
		Msg("Starting portal backend")

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
	examRepo := repository.NewExamRepository(pool)
	candidateRepo := repository.NewCandidateRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	tokenRepo := repository.NewIdempotencyRepository(rdb, cfg.IdempotencyTTL)
	catalogueCache := repository.NewCatalogueCacheRepository(rdb, cfg.CatalogueCacheTTL)

	// ─── Notification Pipeline ────────────────────────────────────────
	mailQueue := notification.NewQueue(rdb, config.WorkerKey.ResultMailQueue)
	dispatcher := notification.NewQueueDispatcher(mailQueue)

	var mailer notification.Mailer = notification.NewLogMailer(log)
	if cfg.MailEnabled() {
		mailer = notification.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromAddress, cfg.AppName)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, candidateRepo)
	gate := service.NewAvailabilityGate(examRepo, time.Now)
	examService := service.NewExamService(examRepo, catalogueCache, log)
	sessionService := service.NewExamSessionService(gate, candidateRepo, resultRepo, dispatcher, tokenRepo, log)
	submissionService := service.NewSubmissionService(examRepo, resultRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Exam:       handler.NewExamHandler(examService, sessionService),
		Submission: handler.NewSubmissionHandler(submissionService),
		WS:         handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(mailQueue, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	notifyWorker := worker.NewNotificationWorker(
		mailQueue,
		mailer,
		notification.Renderer{AppName: cfg.AppName, FrontendBaseURL: cfg.FrontendBaseURL},
		cfg.NotifyMaxAttempts,
		log,
	)
	go func() {
		notifyWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	// 2. Let in-flight result hand-offs reach the queue.
	sessionService.WaitNotifications()

	// 3. Stop the mail worker after its current job.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Notification worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
