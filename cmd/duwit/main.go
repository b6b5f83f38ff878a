package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robbyyapr/duwit/internal/config"
	"github.com/robbyyapr/duwit/internal/handler"
	"github.com/robbyyapr/duwit/internal/infra/cache"
	"github.com/robbyyapr/duwit/internal/infra/filestore"
	"github.com/robbyyapr/duwit/internal/infra/notify"
	"github.com/robbyyapr/duwit/internal/infra/observability"
	"github.com/robbyyapr/duwit/internal/infra/remotestore"
	"github.com/robbyyapr/duwit/internal/infra/resilience"
	"github.com/robbyyapr/duwit/internal/port"
	"github.com/robbyyapr/duwit/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_remote_store", cfg.UseRemoteStore),
		zap.String("data_path", cfg.DataPath()),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("reminder_hour", cfg.ReminderHour),
		zap.Bool("pin_gate", cfg.PinBcryptHash != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "duwit")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	clock := service.SystemClock{}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// --- Store backend ---
	var repo port.StoreRepository
	if cfg.UseRemoteStore && cfg.StoreURL != "" {
		logger.Info("using remote store backend", zap.String("store_url", cfg.StoreURL))
		cb := resilience.NewCircuitBreaker("remote-store")
		repo = remotestore.NewClient(httpClient, cfg.StoreURL, clock, cb, resilienceCfg, logger)
	} else {
		logger.Info("using file store backend", zap.String("path", cfg.DataPath()))
		repo = filestore.New(cfg.DataPath(), clock, resilienceCfg, logger)
	}

	// --- Services ---
	ledgerSvc := service.NewLedgerService(repo, clock, metrics, logger)
	ledgerSvc.Load(context.Background())

	var authSvc *service.AuthService
	if cfg.PinBcryptHash != "" {
		attempts := cache.New[int](cfg.ThrottleTTL)
		authSvc = service.NewAuthService(cfg.PinBcryptHash, cfg.SessionSecret, cfg.SessionTTL, clock, attempts, metrics, logger)
		logger.Info("PIN gate enabled", zap.Duration("session_ttl", cfg.SessionTTL))
	} else {
		logger.Warn("PIN gate disabled: PIN_BCRYPT_HASH not set")
	}

	// --- Reminder ---
	reminder := notify.New(ledgerSvc, clock, cfg.ReminderHour, cfg.ReminderWebhookURL, httpClient, resilienceCfg, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(ledgerSvc, authSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := reminder.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}

	logger.Info("server stopped")
}
