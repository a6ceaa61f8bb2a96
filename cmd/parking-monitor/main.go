package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"parking-monitor/internal/auth"
	"parking-monitor/internal/config"
	"parking-monitor/internal/db"
	"parking-monitor/internal/detector"
	httphandler "parking-monitor/internal/http"
	"parking-monitor/internal/http/middleware"
	"parking-monitor/internal/logger"
	"parking-monitor/internal/monitor"
	"parking-monitor/internal/notify"
	"parking-monitor/internal/repository"
	"parking-monitor/internal/service"
	"parking-monitor/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	spots, err := config.LoadSpots(cfg.SpotsFile)
	if err != nil {
		appLogger.Fatal().Err(err).Str("path", cfg.SpotsFile).Msg("failed to load spot layout")
	}
	appLogger.Info().Int("spots", len(spots)).Str("path", cfg.SpotsFile).Msg("spot layout loaded")

	sessionRepo := repository.NewSessionRepository(database)

	ctx := context.Background()
	if err := sessionRepo.SyncSpots(ctx, spots); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to sync spot layout to database")
	}

	detectorClient := detector.NewHTTPDetector(cfg.Detector.BaseURL, cfg.Detector.Timeout)

	notifier, err := notify.New(cfg.Notify.URL)
	if err != nil {
		if !errors.Is(err, notify.ErrNotConfigured) {
			appLogger.Fatal().Err(err).Msg("failed to initialize notifier")
		}
		appLogger.Warn().Msg("notification transport not configured, chat alerts will be disabled")
	}

	// R2 storage is optional, snapshots are skipped when unset.
	r2Client, err := storage.NewR2ClientFromEnv()
	if err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		appLogger.Fatal().Err(err).Msg("failed to initialize R2 client")
	}
	if err != nil {
		appLogger.Warn().Msg("R2 storage not configured, session snapshots will be disabled")
	}

	recorder := service.NewSessionRecorder(sessionRepo, detectorClient, r2Client, appLogger)
	dispatcher := service.NewAlertDispatcher(sessionRepo, notifier, appLogger)

	mon := monitor.New(spots, monitor.Options{
		Interval:             cfg.Monitor.Interval,
		MinOverlap:           cfg.Monitor.MinOverlap,
		MinConfidence:        cfg.Monitor.MinConfidence,
		OpenDebounce:         cfg.Monitor.OpenDebounce,
		CloseDebounce:        cfg.Monitor.CloseDebounce,
		GapTolerance:         cfg.Monitor.GapTolerance,
		DriftRadius:          cfg.Monitor.DriftRadius,
		AlertThresholdsHours: cfg.Monitor.AlertThresholdsHours,
	}, detectorClient, recorder, dispatcher, appLogger)

	openSessions, err := sessionRepo.FindOpenSessions(ctx)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to load open sessions")
	}
	if len(openSessions) > 0 {
		mon.Rehydrate(openSessions)
		appLogger.Info().Int("sessions", len(openSessions)).Msg("rehydrated open sessions")
	}

	monitorService := service.NewMonitorService(mon, sessionRepo, notifier, spots, cfg.Monitor.StatsWindowDays, appLogger)

	if cfg.Monitor.AutoStart {
		monitorService.StartMonitoring()
		appLogger.Info().Dur("interval", cfg.Monitor.Interval).Msg("monitoring started")
	}

	if cfg.Monitor.RetentionDays > 0 {
		go runRetention(ctx, monitorService, cfg.Monitor.RetentionDays, appLogger)
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(monitorService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, database, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting parking monitor service")

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error().Err(err).Msg("failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server")

	monitorService.StopMonitoring()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server exited")
}

func runRetention(ctx context.Context, svc *service.MonitorService, days int, log zerolog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		if _, err := svc.CleanupOldSessions(ctx, days); err != nil {
			log.Error().Err(err).Msg("retention pass failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
