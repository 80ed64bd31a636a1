package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/clipboard"
	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/server"
	"go-chi-calculator/internal/settings"
	"go-chi-calculator/internal/storage"
)

func main() {

	ctx := context.Background()

	// Environment
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Logger
	err = observability.InitLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Tracing, metrics and logs
	telemetryShutdown, err := observability.InitTelemetry(ctx, cfg.TelemetryEnabled)
	if err != nil {
		observability.Logger.Fatal("failed to start telemetry", zap.Error(err))
	}
	defer telemetryShutdown(ctx)

	// Storage
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.SQLitePath)
	if err != nil {
		observability.Logger.Fatal("failed to open storage",
			zap.String("backend", cfg.Storage.Backend),
			zap.Error(err),
		)
	}
	defer store.Close()

	// Settings and history
	provider := settings.NewProvider(store, observability.Logger)
	provider.Load(ctx)
	provider.Subscribe(func(old, updated settings.Settings) {
		observability.Logger.Info("settings changed",
			zap.Any("old", old),
			zap.Any("new", updated),
		)
	})

	recorder := history.NewRecorder(store, history.WithLogger(observability.Logger))
	entries := recorder.Load(ctx)
	observability.Logger.Info("history loaded", zap.Int("entries", len(entries)))

	// Sessions
	policy, err := calculator.ParseOperatorPolicy(cfg.Session.OperatorPolicy)
	if err != nil {
		observability.Logger.Fatal("invalid operator policy", zap.Error(err))
	}
	clip := clipboard.New(cfg.Session.Clipboard)

	factory := func() *calculator.Controller {
		return calculator.NewController(provider,
			calculator.WithHistory(recorder),
			calculator.WithClipboard(clip),
			calculator.WithOperatorPolicy(policy),
			calculator.WithLivePreview(cfg.Session.LivePreview),
			calculator.WithLogger(observability.Logger),
		)
	}
	sessions := calculator.NewSessions(cfg.Session.TTL, cfg.Session.CleanupEvery, factory, observability.Logger)
	defer sessions.Close()

	// Metrics
	if err := initMetrics(sessions); err != nil {
		observability.Logger.Fatal("failed to create metrics", zap.Error(err))
	}

	// Router
	router := server.NewRouter(server.Routes{
		Calculator: calculator.NewHandler(sessions, factory),
		History:    history.NewHandler(recorder),
		Settings:   settings.NewHandler(provider),
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		observability.Logger.Info("server started", zap.String("addr", cfg.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(srv, cfg)
}

func waitForShutdown(srv *http.Server, cfg *config.Config) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Error("graceful shutdown failed", zap.Error(err))
	}
	observability.Logger.Info("server stopped")
}
