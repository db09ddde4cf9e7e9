package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/instaaid/ride-tracker/internal/assistant"
	"github.com/instaaid/ride-tracker/internal/backend"
	"github.com/instaaid/ride-tracker/internal/config"
	"github.com/instaaid/ride-tracker/internal/events"
	"github.com/instaaid/ride-tracker/internal/httpapi"
	"github.com/instaaid/ride-tracker/internal/logging"
	"github.com/instaaid/ride-tracker/internal/notify"
	"github.com/instaaid/ride-tracker/internal/payments"
	"github.com/instaaid/ride-tracker/internal/rebook"
	"github.com/instaaid/ride-tracker/internal/routes"
	"github.com/instaaid/ride-tracker/internal/storage"
	"github.com/instaaid/ride-tracker/internal/tracker"
)

func main() {
	cfg, err := config.LoadAgentConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// a pre-provisioned token skips the OTP flow; otherwise the store
	// stays empty until /api/v1/auth/otp/verify fills it
	sessions := &backend.TokenStore{}
	if cfg.APIToken != "" {
		sessions.SetToken(cfg.APIToken, "patient")
	}
	api := backend.NewClient(cfg.ServerURL, sessions)

	var provider routes.Provider
	if cfg.GoogleMapsAPIKey != "" {
		provider = routes.NewGoogleClient(cfg.GoogleMapsAPIKey)
	} else {
		logger.Warn("no maps api key configured, routes use the straight-line fallback")
	}
	routeClient := routes.NewClient(provider, routes.NewCache(routes.DefaultTTL), logging.ForComponent(logger, "routes"))

	var snapshots rebook.Store
	if cfg.RedisAddr != "" {
		rs := rebook.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SnapshotKey)
		defer rs.Close()
		snapshots = rs
	} else {
		snapshots = rebook.NewMemoryStore()
	}

	rebookSvc := rebook.NewService(snapshots, api, nil, logging.ForComponent(logger, "rebook"))
	if cfg.StripeAPIKey != "" {
		rebookSvc.Payments = payments.NewClient(cfg.StripeAPIKey, cfg.StripeCurrency)
	}

	var journal storage.Journal
	if cfg.PGDSN != "" {
		if strings.EqualFold(os.Getenv("MIGRATE"), "true") {
			runMigrations(cfg.PGDSN, logger)
		}
		pj, err := storage.NewPostgresJournal(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres journal unavailable", "error", err)
			os.Exit(1)
		}
		defer pj.Close()
		journal = pj
	}

	var publisher httpapi.TransitionPublisher
	if len(cfg.KafkaBrokers) > 0 {
		p := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer p.Close()
		publisher = p
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.PushEndpoint != "" {
		notifier = notify.NewHTTPNotifier(cfg.PushEndpoint, cfg.PushKey)
	}

	var assist *assistant.Client
	if cfg.AssistantAPIKey != "" {
		assist = assistant.NewClient(cfg.AssistantAPIKey, cfg.AssistantEndpoint)
	}

	srv := httpapi.NewServer(httpapi.Options{
		Fetcher:   api,
		Hospitals: api,
		Routes:    routeClient,
		Rebook:    rebookSvc,
		Journal:   journal,
		Events:    publisher,
		Notify:    notifier,
		Assistant: assist,
		Account:   api,
		Sessions:  sessions,
		TrackerCfg: tracker.Config{
			PollInterval:    cfg.PollInterval,
			NoDriverTimeout: cfg.NoDriverTimeout,
		},
		Logger: logging.ForComponent(logger, "httpapi"),
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("tracking agent listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func runMigrations(dsn string, logger *slog.Logger) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Warn("migration db open error", "error", err)
		return
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_ride_status_events.sql"))
	if err != nil {
		logger.Warn("migration read error", "error", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		logger.Warn("migration exec error", "error", err)
		return
	}
	logger.Info("migration applied", "file", "001_create_ride_status_events.sql")
}
