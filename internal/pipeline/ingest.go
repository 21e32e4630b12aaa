package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/floatchat/argo-data-service/internal/domain"
	"github.com/floatchat/argo-data-service/internal/observability"
)

// IngestStore is the storage surface of the bulk ingest job.
type IngestStore interface {
	UpsertFloat(ctx context.Context, platformNumber string) error
	InsertProfile(ctx context.Context, p domain.Profile) (int64, error)
}

// BulkIngestJob walks the global index and creates float and profile
// rows for recent records. One index download per run; per-record write
// failures are logged and skipped so a single bad record never aborts
// the batch.
type BulkIngestJob struct {
	index    IndexSource
	store    IngestStore
	daysBack int
	region   string
	limit    int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewBulkIngestJob configures a run. daysBack below 1 is treated as 1;
// region empty means no region filter; limit caps created profiles.
func NewBulkIngestJob(index IndexSource, store IngestStore, daysBack int, region string, limit int, logger *slog.Logger, metrics *observability.Metrics) *BulkIngestJob {
	if daysBack < 1 {
		daysBack = 1
	}
	return &BulkIngestJob{
		index:    index,
		store:    store,
		daysBack: daysBack,
		region:   region,
		limit:    limit,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run executes one ingest pass and returns the number of profiles
// created. An index download failure is fatal; everything after that is
// best-effort per record.
func (j *BulkIngestJob) Run(ctx context.Context) (int, error) {
	records, err := fetchIndexRecords(ctx, j.index)
	if err != nil {
		return 0, err
	}
	j.metrics.IndexRecordsParsed.Add(float64(len(records)))

	cutoff := domain.Now().AddDate(0, 0, -j.daysBack)
	selected := j.selectRecords(records, cutoff)
	j.logger.Info("ingest selection complete",
		"parsed", len(records), "selected", len(selected),
		"cutoff", cutoff.Format(time.RFC3339), "region", j.region)

	created := 0
	for _, rec := range selected {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if err := j.ingestRecord(ctx, rec); err != nil {
			j.logger.Error("record ingest failed", "platform", rec.PlatformNumber, "path", rec.FilePath, "error", err)
			continue
		}
		created++
	}

	j.logger.Info("bulk ingest finished", "created", created, "selected", len(selected))
	return created, nil
}

// selectRecords applies the recency window, the region filter, and the
// coordinate requirement, capping the result at the configured limit in
// index order.
func (j *BulkIngestJob) selectRecords(records []domain.IndexRecord, cutoff time.Time) []domain.IndexRecord {
	selected := make([]domain.IndexRecord, 0)
	for _, rec := range records {
		if rec.Date == nil || rec.Date.Before(cutoff) {
			continue
		}
		if j.region != "" && !rec.MatchesRegion(j.region) {
			continue
		}
		if rec.Latitude == nil || rec.Longitude == nil {
			continue
		}
		selected = append(selected, rec)
		if j.limit > 0 && len(selected) >= j.limit {
			break
		}
	}
	return selected
}

// ingestRecord writes the float (insert-if-absent) and then the profile.
func (j *BulkIngestJob) ingestRecord(ctx context.Context, rec domain.IndexRecord) error {
	if err := j.store.UpsertFloat(ctx, rec.PlatformNumber); err != nil {
		return err
	}
	j.metrics.FloatsUpserted.Inc()

	path := rec.FilePath
	profile := domain.Profile{
		PlatformNumber: rec.PlatformNumber,
		CycleNumber:    1,
		ProfileDate:    rec.Date,
		Latitude:       *rec.Latitude,
		Longitude:      *rec.Longitude,
		OceanRegion:    j.oceanRegion(rec),
		FilePath:       &path,
	}
	if _, err := j.store.InsertProfile(ctx, profile); err != nil {
		return err
	}
	j.metrics.ProfilesIngested.Inc()
	return nil
}

// oceanRegion prefers the index's basin column; a run-level region
// filter is the fallback label when the column is absent.
func (j *BulkIngestJob) oceanRegion(rec domain.IndexRecord) *string {
	if name := domain.BasinName(rec.Ocean); name != "" {
		return &name
	}
	if j.region != "" {
		region := j.region
		return &region
	}
	return nil
}
