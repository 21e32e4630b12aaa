package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/floatchat/argo-data-service/internal/domain"
	"github.com/floatchat/argo-data-service/internal/observability"
)

// MeasurementStore is the storage surface of the lazy measurement path.
type MeasurementStore interface {
	GetProfile(ctx context.Context, id int64) (domain.Profile, error)
	UpdateProfilePath(ctx context.Context, id int64, path string) error
	MeasurementsForProfile(ctx context.Context, profileID int64) ([]domain.Measurement, error)
	InsertMeasurements(ctx context.Context, profileID int64, rows []domain.Measurement) error
}

// MeasurementService serves a profile's depth levels, lazily running the
// resolve-fetch-extract-persist pipeline on the first miss. Concurrent
// misses for the same profile share a single flight, and NetCDF decoding
// is bounded by a worker semaphore so large files cannot starve the
// process.
type MeasurementService struct {
	store     MeasurementStore
	index     IndexSource
	files     ProfileFileFetcher
	extractor SeriesExtractor
	logger    *slog.Logger
	metrics   *observability.Metrics

	flights    singleflight.Group
	extractSem *semaphore.Weighted

	mu      sync.Mutex
	buckets map[string][]domain.IndexRecord
}

// NewMeasurementService wires the lazy fetch path. extractor may be nil
// when no extraction backend is available; the service then serves only
// already-persisted rows.
func NewMeasurementService(
	store MeasurementStore,
	index IndexSource,
	files ProfileFileFetcher,
	extractor SeriesExtractor,
	extractWorkers int,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *MeasurementService {
	if extractWorkers < 1 {
		extractWorkers = 1
	}
	return &MeasurementService{
		store:      store,
		index:      index,
		files:      files,
		extractor:  extractor,
		logger:     logger,
		metrics:    metrics,
		extractSem: semaphore.NewWeighted(int64(extractWorkers)),
	}
}

// ExtractionAvailable reports whether an extraction backend was wired at
// composition time.
func (s *MeasurementService) ExtractionAvailable() bool {
	return s.extractor != nil
}

// MeasurementsForProfile returns persisted rows for the profile,
// triggering one synchronous fetch-and-store on a miss. A miss that
// still produces nothing yields an empty result, not an error; querying
// never re-triggers a fetch once any row exists.
func (s *MeasurementService) MeasurementsForProfile(ctx context.Context, profileID int64) ([]domain.Measurement, error) {
	rows, err := s.store.MeasurementsForProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 || !s.ExtractionAvailable() {
		return rows, nil
	}

	// Deduplicate concurrent misses: one flight per profile id. The key
	// is forgotten on completion so a failed store stays retryable.
	key := strconv.FormatInt(profileID, 10)
	_, err, _ = s.flights.Do(key, func() (any, error) {
		s.metrics.LazyFetchesInFlight.Inc()
		defer s.metrics.LazyFetchesInFlight.Dec()
		return nil, s.fetchAndStore(ctx, profileID)
	})
	if err != nil {
		return nil, err
	}

	return s.store.MeasurementsForProfile(ctx, profileID)
}

// fetchAndStore runs resolve -> fetch -> extract -> persist for one
// profile. "Nothing found" outcomes (no path, no variables, no finite
// rows) return nil so the caller serves an empty result; network and
// storage failures propagate.
func (s *MeasurementService) fetchAndStore(ctx context.Context, profileID int64) error {
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}

	path, found, err := s.resolvePath(ctx, &profile)
	if err != nil {
		return err
	}
	if !found {
		s.metrics.MeasurementFetches.WithLabelValues("no_data").Inc()
		return nil
	}

	local, cleanup, err := s.files.FetchProfileFile(ctx, path)
	if err != nil {
		s.metrics.MeasurementFetches.WithLabelValues("error").Inc()
		return err
	}
	defer cleanup()

	series, err := s.extract(ctx, local)
	if err != nil {
		s.metrics.MeasurementFetches.WithLabelValues("error").Inc()
		return err
	}
	if series.Empty() {
		s.metrics.MeasurementFetches.WithLabelValues("no_data").Inc()
		s.logger.Info("profile file has no known variables", "profile_id", profileID, "path", path)
		return nil
	}

	rows := domain.BuildLevels(series)
	if len(rows) == 0 {
		s.metrics.MeasurementFetches.WithLabelValues("no_data").Inc()
		s.logger.Info("no usable rows after filtering", "profile_id", profileID, "path", path)
		return nil
	}

	if err := s.store.InsertMeasurements(ctx, profileID, rows); err != nil {
		s.metrics.MeasurementFetches.WithLabelValues("error").Inc()
		return fmt.Errorf("persist measurements for profile %d: %w", profileID, err)
	}

	s.metrics.MeasurementFetches.WithLabelValues("success").Inc()
	s.metrics.MeasurementRowsPersisted.Add(float64(len(rows)))
	s.logger.Info("measurements persisted", "profile_id", profileID, "rows", len(rows))
	return nil
}

// resolvePath short-circuits on a cached archive path and otherwise
// resolves against a lazily-loaded index snapshot.
func (s *MeasurementService) resolvePath(ctx context.Context, profile *domain.Profile) (string, bool, error) {
	if profile.FilePath != nil && *profile.FilePath != "" {
		normalized := domain.NormalizePath(*profile.FilePath)
		if normalized != *profile.FilePath {
			if err := s.store.UpdateProfilePath(ctx, profile.ID, normalized); err != nil {
				return "", false, err
			}
		}
		return normalized, true, nil
	}

	buckets, err := s.indexBuckets(ctx)
	if err != nil {
		return "", false, err
	}
	resolver := &PathResolver{buckets: buckets, store: s.store, logger: s.logger, metrics: s.metrics}
	return resolver.Resolve(ctx, profile)
}

// indexBuckets downloads and buckets the index on first use, then serves
// the snapshot for the service's lifetime. A failed download is not
// cached; the next miss retries.
func (s *MeasurementService) indexBuckets(ctx context.Context) (map[string][]domain.IndexRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets != nil {
		return s.buckets, nil
	}
	records, err := fetchIndexRecords(ctx, s.index)
	if err != nil {
		return nil, err
	}
	s.buckets = domain.BucketByPlatform(records)
	return s.buckets, nil
}

// extract decodes the staged file under the worker semaphore.
func (s *MeasurementService) extract(ctx context.Context, local string) (domain.ProfileSeries, error) {
	if err := s.extractSem.Acquire(ctx, 1); err != nil {
		return domain.ProfileSeries{}, err
	}
	defer s.extractSem.Release(1)

	start := time.Now()
	series, err := s.extractor.ExtractSeries(local)
	if err != nil {
		return domain.ProfileSeries{}, err
	}
	s.metrics.ExtractDuration.Observe(time.Since(start).Seconds())
	return series, nil
}
