package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/floatchat/argo-data-service/internal/adapter/httpapi"
	"github.com/floatchat/argo-data-service/internal/archive"
	"github.com/floatchat/argo-data-service/internal/config"
	"github.com/floatchat/argo-data-service/internal/netcdf"
	"github.com/floatchat/argo-data-service/internal/observability"
	"github.com/floatchat/argo-data-service/internal/pipeline"
	"github.com/floatchat/argo-data-service/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
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

	extractor := netcdf.NewExtractor(logger)
	measurements := pipeline.NewMeasurementService(
		st, client, client, extractor, cfg.ExtractWorkers, logger, metrics,
	)
	logger.Info("measurement extraction ready", "available", measurements.ExtractionAvailable(), "workers", cfg.ExtractWorkers)

	srv := httpapi.New(*cfg, st, measurements, logger)
	return srv.Run(ctx)
}
