// Command calc is a line-oriented terminal calculator sharing the API
// server's storage, settings and history.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/clipboard"
	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/settings"
	"go-chi-calculator/internal/storage"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "calc: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		return err
	}
	defer observability.SyncLogger()

	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	provider := settings.NewProvider(store, observability.Logger)
	provider.Load(ctx)

	recorder := history.NewRecorder(store, history.WithLogger(observability.Logger))
	recorder.Load(ctx)

	policy, err := calculator.ParseOperatorPolicy(cfg.Session.OperatorPolicy)
	if err != nil {
		return err
	}

	ctrl := calculator.NewController(provider,
		calculator.WithHistory(recorder),
		calculator.WithClipboard(clipboard.New(cfg.Session.Clipboard)),
		calculator.WithOperatorPolicy(policy),
		calculator.WithLivePreview(cfg.Session.LivePreview),
		calculator.WithLogger(observability.Logger),
	)

	r := &repl{
		ctrl:    ctrl,
		history: recorder,
		out:     os.Stdout,
		prompt:  term.IsTerminal(int(os.Stdin.Fd())),
	}

	observability.Logger.Debug("calculator ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("prompt", r.prompt),
	)
	return r.run(ctx, os.Stdin)
}
