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
	daysBack := flag.Int("days-back", 0, "override INGEST_DAYS_BACK (recency window in days)")
	region := flag.String("region", "", "override INGEST_REGION (basin token or substring)")
	limit := flag.Int("limit", 0, "override INGEST_LIMIT (max profiles to create)")
	flag.Parse()

	if err := run(*daysBack, *region, *limit); err != nil {
		slog.Error("bulk ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(daysBack int, region string, limit int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if daysBack > 0 {
		cfg.IngestDaysBack = daysBack
	}
	if region != "" {
		cfg.IngestRegion = region
	}
	if limit > 0 {
		cfg.IngestLimit = limit
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

	job := pipeline.NewBulkIngestJob(client, st, cfg.IngestDaysBack, cfg.IngestRegion, cfg.IngestLimit, logger, metrics)
	created, err := job.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("ingest run complete", "profiles_created", created)
	return nil
}
