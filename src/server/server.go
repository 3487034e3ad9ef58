package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"

	"signalengine/src/auth"
	"signalengine/src/handler"
	"signalengine/src/health"
	"signalengine/src/notify"
	"signalengine/src/pipeline"
	"signalengine/src/repository"
	"signalengine/src/security"
	"signalengine/src/ws"
)

func StartServer() {
	config := GetConfig()
	securityConfig := security.GetConfig()

	// Repositories
	strategyRepo := repository.NewStrategyRepository()
	positionRepo := repository.NewPositionRepository()
	stagingRepo := repository.NewStagingTradeRepository()
	logRepo := repository.NewWebhookLogRepository()
	settingRepo := repository.NewSettingRepository()

	// Gates and health
	healthConfig := health.GetConfig()
	breaker := health.NewCircuitBreaker(healthConfig)
	pause := health.NewPauseSwitch(context.Background(), settingRepo)
	monitor := health.NewMonitor(logRepo, breaker, pause, healthConfig)

	notifier := notify.NewNotifier(notify.GetConfig())
	breaker.OnStateChange(notifier.CircuitStateChanged)
	pause.OnToggle(func(paused bool) {
		notifier.ProcessingToggled(paused, "admin")
	})

	webhookTokenHash, err := securityConfig.ResolveWebhookTokenHash()
	if err != nil {
		logger.WithError(err).Fatal("Failed to derive webhook token hash")
	}

	// Pipeline
	hub := ws.NewHub()
	validator := pipeline.NewValidator(webhookTokenHash, strategyRepo)
	dedup := pipeline.NewDuplicateFilter(pipeline.GetConfig())
	processor := pipeline.NewProcessor(validator, dedup, positionRepo, logRepo, breaker, hub, pause, breaker)

	adminOnly := auth.AdminMiddleware(securityConfig.AdminAPIToken, securityConfig.AdminUsername)
	ingestLimiter := newIPRateLimiter(config.IngestRateLimit, config.IngestRateBurst)

	// Router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck error")
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	// Ingest (authenticated by the payload token, rate limited per IP)
	r.Group(func(r chi.Router) {
		r.Use(ingestLimiter.middleware)
		r.Post("/api/webhook", handler.IngestWebhookHandler(processor))
		r.Post("/api/webhook/validate", handler.ValidatePayloadHandler(validator))
	})

	// Admin surface
	r.Group(func(r chi.Router) {
		r.Use(adminOnly)

		r.Get("/api/webhook/status", handler.WebhookStatusHandler(monitor))
		r.Get("/api/webhook/health", handler.WebhookHealthHandler(monitor))
		r.Get("/api/webhook/logs", handler.QueryWebhookLogsHandler(logRepo))
		r.Delete("/api/webhook/logs", handler.ClearWebhookLogsHandler(logRepo, breaker))

		r.Get("/api/positions", handler.ListOpenPositionsHandler(positionRepo))
		r.Post("/api/positions/{id}/close", handler.ClosePositionHandler(positionRepo))

		r.Get("/api/staging", handler.ListStagingTradesHandler(stagingRepo))
		r.Get("/api/staging/stats", handler.StagingStatsHandler(stagingRepo))
		r.Post("/api/staging/{id}/approve", handler.ApproveStagingTradeHandler(stagingRepo))
		r.Post("/api/staging/{id}/reject", handler.RejectStagingTradeHandler(stagingRepo))
		r.Put("/api/staging/{id}", handler.EditStagingTradeHandler(stagingRepo))
		r.Delete("/api/staging/{id}", handler.DeleteStagingTradeHandler(stagingRepo))

		r.Post("/api/processing/pause", handler.PauseProcessingHandler(pause))
		r.Post("/api/processing/resume", handler.ResumeProcessingHandler(pause))

		r.Post("/api/trades/bulk", handler.BulkUploadTradesHandler(strategyRepo, repository.NewTradeRepository()))

		r.Get("/ws", hub.ServeHTTP)
	})

	// Graceful server
	addr := ":" + config.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
