// Package pipeline orchestrates the Argo ingestion flows: bulk index
// ingestion, archive-path backfill, and the lazy fetch-parse-persist of
// per-depth measurements. Collaborators are narrow interfaces so tests
// can swap in fakes.
package pipeline

import (
	"context"

	"github.com/floatchat/argo-data-service/internal/domain"
)

// IndexSource downloads the raw (possibly gzipped) global profile index.
type IndexSource interface {
	FetchIndex(ctx context.Context) ([]byte, error)
}

// ProfileFileFetcher stages a profile's NetCDF file locally. The cleanup
// func removes the staging file and must run on every path.
type ProfileFileFetcher interface {
	FetchProfileFile(ctx context.Context, path string) (string, func(), error)
}

// SeriesExtractor decodes a staged NetCDF file into physical series.
type SeriesExtractor interface {
	ExtractSeries(path string) (domain.ProfileSeries, error)
}

// fetchIndexRecords downloads, decodes, and parses the index. A failed
// download is fatal to the calling job: no index, nothing to do.
func fetchIndexRecords(ctx context.Context, src IndexSource) ([]domain.IndexRecord, error) {
	raw, err := src.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}
	decoded, err := domain.DecodeIndex(raw)
	if err != nil {
		return nil, err
	}
	return domain.ParseIndex(decoded), nil
}
