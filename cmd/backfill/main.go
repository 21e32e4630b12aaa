package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/floatchat/argo-data-service/internal/archive"
	"github.com/floatchat/argo-data-service/internal/config"
	"github.com/floatchat/argo-data-service/internal/observability"
	"github.com/floatchat/argo-data-service/internal/pipeline"
	"github.com/floatchat/argo-data-service/internal/store"
)

func main() {
	limit := flag.Int("limit", 0, "max profiles to backfill (0 means all missing a path)")
	flag.Parse()

	if err := run(*limit); err != nil {
		slog.Error("bulk backfill failed", "error", err)
		os.Exit(1)
	}
}

func run(limit int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.DatabaseURL, cfg.ConnectTimeout)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	client := archive.NewClient(archive.Options{
		IndexURL:           cfg.IndexURL,
		BaseURL:            cfg.ArchiveBaseURL,
		ConnectTimeout:     cfg.ConnectTimeout,
		IndexReadTimeout:   cfg.IndexReadTimeout,
		ProfileReadTimeout: cfg.ProfileReadTimeout,
	}, logger, metrics)

	job := pipeline.NewBulkBackfillJob(client, st, limit, logger, metrics)
	updated, err := job.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("backfill run complete", "profiles_updated", updated)
	return nil
}
