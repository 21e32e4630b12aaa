package pipeline

import (
	"context"
	"log/slog"

	"github.com/floatchat/argo-data-service/internal/domain"
	"github.com/floatchat/argo-data-service/internal/observability"
)

// BackfillStore is the storage surface of the path backfill job.
type BackfillStore interface {
	ProfilesMissingPath(ctx context.Context, limit int) ([]domain.Profile, error)
	UpdateProfilePath(ctx context.Context, id int64, path string) error
}

// BulkBackfillJob resolves archive paths for profiles that still lack
// one, matching each against the platform-bucketed index by nearest
// timestamp. The chosen path is written exactly as the index carries it;
// normalization happens later, on the fetch path.
type BulkBackfillJob struct {
	index   IndexSource
	store   BackfillStore
	limit   int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBulkBackfillJob configures a run. limit <= 0 backfills every
// profile missing a path.
func NewBulkBackfillJob(index IndexSource, store BackfillStore, limit int, logger *slog.Logger, metrics *observability.Metrics) *BulkBackfillJob {
	return &BulkBackfillJob{
		index:   index,
		store:   store,
		limit:   limit,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes one backfill pass and returns the number of profiles
// updated. The index download and the candidate listing are fatal;
// per-profile write failures are logged and skipped.
func (j *BulkBackfillJob) Run(ctx context.Context) (int, error) {
	records, err := fetchIndexRecords(ctx, j.index)
	if err != nil {
		return 0, err
	}
	buckets := domain.BucketByPlatform(records)

	profiles, err := j.store.ProfilesMissingPath(ctx, j.limit)
	if err != nil {
		return 0, err
	}
	j.logger.Info("backfill scan", "index_records", len(records), "profiles_missing_path", len(profiles))

	updated := 0
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		chosen, ok := domain.NearestPath(buckets[p.PlatformNumber], p.ProfileDate)
		if !ok {
			j.metrics.PathResolutionMisses.Inc()
			continue
		}
		if err := j.store.UpdateProfilePath(ctx, p.ID, chosen); err != nil {
			j.logger.Error("path backfill failed", "profile_id", p.ID, "platform", p.PlatformNumber, "error", err)
			continue
		}
		j.metrics.PathsResolved.Inc()
		updated++
	}

	j.logger.Info("backfill finished", "updated", updated, "scanned", len(profiles))
	return updated, nil
}
