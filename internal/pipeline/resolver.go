package pipeline

import (
	"context"
	"log/slog"

	"github.com/floatchat/argo-data-service/internal/domain"
	"github.com/floatchat/argo-data-service/internal/observability"
)

// ProfilePathWriter persists a discovered archive path.
type ProfilePathWriter interface {
	UpdateProfilePath(ctx context.Context, id int64, path string) error
}

// PathResolver finds the best-matching archive path for a profile inside
// a bucketed index snapshot and caches it on the profile record.
type PathResolver struct {
	buckets map[string][]domain.IndexRecord
	store   ProfilePathWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPathResolver buckets the index records by platform once up front.
func NewPathResolver(records []domain.IndexRecord, store ProfilePathWriter, logger *slog.Logger, metrics *observability.Metrics) *PathResolver {
	return &PathResolver{
		buckets: domain.BucketByPlatform(records),
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Resolve returns the normalized archive path for the profile. A path
// already cached on the profile short-circuits discovery; it is
// re-normalized in memory and written back only if normalization
// actually changed it, so repeated calls never issue redundant writes.
// found=false means no index candidate matched; that is a normal
// outcome, not an error. The profile is mutated in place on success.
func (r *PathResolver) Resolve(ctx context.Context, profile *domain.Profile) (string, bool, error) {
	if profile.FilePath != nil && *profile.FilePath != "" {
		normalized := domain.NormalizePath(*profile.FilePath)
		if normalized == *profile.FilePath {
			return normalized, true, nil
		}
		if err := r.store.UpdateProfilePath(ctx, profile.ID, normalized); err != nil {
			return "", false, err
		}
		profile.FilePath = &normalized
		return normalized, true, nil
	}

	candidates := r.buckets[profile.PlatformNumber]
	chosen, ok := domain.NearestPath(candidates, profile.ProfileDate)
	if !ok {
		r.metrics.PathResolutionMisses.Inc()
		r.logger.Debug("no archive candidate for platform", "platform", profile.PlatformNumber, "profile_id", profile.ID)
		return "", false, nil
	}

	normalized := domain.NormalizePath(chosen)
	if err := r.store.UpdateProfilePath(ctx, profile.ID, normalized); err != nil {
		return "", false, err
	}
	profile.FilePath = &normalized
	r.metrics.PathsResolved.Inc()
	r.logger.Info("archive path resolved", "profile_id", profile.ID, "platform", profile.PlatformNumber, "path", normalized)
	return normalized, true, nil
}
