package main

import (
	"book-client/internal/adapter"
	"book-client/internal/config"
	"book-client/internal/core"
	"book-client/internal/core/model"
	"book-client/pkg/http_client"
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func newLogger(format string, w io.Writer) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

func main() {
	cfg := config.Load(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	logger := newLogger(cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := adapter.NewBookAPIClient(cfg.BaseURL, cfg.Retry, http_client.CreateHTTPClient(cfg.Timeout), logger)
	client.Backoff = cfg.Backoff

	logger.Info("running book API client", "base_url", client.BaseURL, "timeout", cfg.Timeout.String(), "retry", cfg.Retry)

	params := model.RunParams{ISBN: cfg.RunISBN, Author: cfg.RunAuthor, Title: cfg.RunTitle}
	// failed steps are reported by the runner; the exit code stays 0
	core.NewRunner(client, params, os.Stdout, logger).Run(ctx)
}
