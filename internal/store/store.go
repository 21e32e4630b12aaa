// Package store persists floats, profiles, and measurements in Postgres
// through a pgx pool. Each exported method is one logical operation:
// acquire, execute, commit or roll back, release.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floatchat/argo-data-service/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool with an explicit connect
// timeout. Pool acquisition honors the per-call context deadline.
func New(ctx context.Context, databaseURL string, connectTimeout time.Duration) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse database url: %w", err)
	}
	if connectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = connectTimeout
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// UpsertFloat inserts a Float for the platform number if none exists.
// Existing rows are never updated by the pipeline.
func (s *Store) UpsertFloat(ctx context.Context, platformNumber string) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO argo_floats (platform_number, created_at)
VALUES ($1, $2)
ON CONFLICT (platform_number) DO NOTHING`, platformNumber, domain.Now())
	return err
}

// InsertProfile stores a new profile row and returns its id.
func (s *Store) InsertProfile(ctx context.Context, p domain.Profile) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO argo_profiles (platform_number, cycle_number, profile_date, latitude, longitude, ocean_region, file_path, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		p.PlatformNumber, p.CycleNumber, p.ProfileDate, p.Latitude, p.Longitude, p.OceanRegion, p.FilePath, domain.Now(),
	).Scan(&id)
	return id, err
}

const profileColumns = `id, platform_number, cycle_number, profile_date, latitude, longitude, ocean_region, file_path, created_at`

// GetProfile loads one profile by id.
func (s *Store) GetProfile(ctx context.Context, id int64) (domain.Profile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM argo_profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, ErrNotFound
	}
	return p, err
}

// UpdateProfilePath persists a discovered archive path onto the profile.
func (s *Store) UpdateProfilePath(ctx context.Context, id int64, path string) error {
	_, err := s.pool.Exec(ctx, `UPDATE argo_profiles SET file_path = $2 WHERE id = $1`, id, path)
	return err
}

// ProfilesMissingPath lists profiles whose archive path is still
// undiscovered, oldest first. limit <= 0 means no cap.
func (s *Store) ProfilesMissingPath(ctx context.Context, limit int) ([]domain.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM argo_profiles WHERE file_path IS NULL OR file_path = '' ORDER BY id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

// ProfileQuery filters the profile listing.
type ProfileQuery struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
	Start, End     *time.Time
	OceanRegion    string
	Limit          int
}

// ListProfiles returns profiles inside the bounding box, optionally
// narrowed by date range and exact ocean region.
func (s *Store) ListProfiles(ctx context.Context, q ProfileQuery) ([]domain.Profile, error) {
	sql := `SELECT ` + profileColumns + ` FROM argo_profiles
WHERE latitude >= $1 AND latitude <= $2 AND longitude >= $3 AND longitude <= $4`
	args := []any{q.LatMin, q.LatMax, q.LonMin, q.LonMax}

	if q.Start != nil {
		args = append(args, *q.Start)
		sql += fmt.Sprintf(" AND profile_date >= $%d", len(args))
	}
	if q.End != nil {
		args = append(args, *q.End)
		sql += fmt.Sprintf(" AND profile_date <= $%d", len(args))
	}
	if q.OceanRegion != "" {
		args = append(args, q.OceanRegion)
		sql += fmt.Sprintf(" AND ocean_region = $%d", len(args))
	}
	args = append(args, q.Limit)
	sql += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

// ListFloats returns floats, optionally filtered to one platform number.
func (s *Store) ListFloats(ctx context.Context, platformNumber string, limit int) ([]domain.Float, error) {
	sql := `SELECT id, platform_number, wmo_id, deployment_date, deployment_latitude, deployment_longitude, status, data_center, project_name, created_at
FROM argo_floats`
	args := []any{}
	if platformNumber != "" {
		args = append(args, platformNumber)
		sql += fmt.Sprintf(" WHERE platform_number = $%d", len(args))
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	floats := make([]domain.Float, 0)
	for rows.Next() {
		var f domain.Float
		if err := rows.Scan(
			&f.ID, &f.PlatformNumber, &f.WMOID, &f.DeploymentDate,
			&f.DeploymentLatitude, &f.DeploymentLongitude,
			&f.Status, &f.DataCenter, &f.ProjectName, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		floats = append(floats, f)
	}
	return floats, rows.Err()
}

// Stats holds table counts for the stats endpoint.
type Stats struct {
	Profiles     int64 `json:"profiles"`
	Floats       int64 `json:"floats"`
	Measurements int64 `json:"measurements"`
}

// CountStats returns row counts for profiles, floats, and measurements.
func (s *Store) CountStats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
SELECT
  (SELECT count(*) FROM argo_profiles),
  (SELECT count(*) FROM argo_floats),
  (SELECT count(*) FROM argo_measurements)`).Scan(&st.Profiles, &st.Floats, &st.Measurements)
	return st, err
}

// MeasurementsForProfile lists a profile's depth levels in order.
func (s *Store) MeasurementsForProfile(ctx context.Context, profileID int64) ([]domain.Measurement, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, profile_id, pressure, temperature, salinity, depth, measurement_level
FROM argo_measurements
WHERE profile_id = $1
ORDER BY measurement_level`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	measurements := make([]domain.Measurement, 0)
	for rows.Next() {
		var m domain.Measurement
		if err := rows.Scan(&m.ID, &m.ProfileID, &m.Pressure, &m.Temperature, &m.Salinity, &m.Depth, &m.Level); err != nil {
			return nil, err
		}
		measurements = append(measurements, m)
	}
	return measurements, rows.Err()
}

// CountMeasurements reports how many rows a profile already has.
func (s *Store) CountMeasurements(ctx context.Context, profileID int64) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM argo_measurements WHERE profile_id = $1`, profileID).Scan(&n)
	return n, err
}

// InsertMeasurements writes all rows for a profile in one batch inside
// one transaction: a single commit per profile, no partial inserts.
func (s *Store) InsertMeasurements(ctx context.Context, profileID int64, rows []domain.Measurement) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	const insertSQL = `
INSERT INTO argo_measurements (profile_id, pressure, temperature, salinity, depth, measurement_level, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	now := domain.Now()
	for _, m := range rows {
		batch.Queue(insertSQL, profileID, m.Pressure, m.Temperature, m.Salinity, m.Depth, m.Level, now)
	}

	res := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := res.Exec(); err != nil {
			res.Close()
			return fmt.Errorf("store: insert measurements: %w", err)
		}
	}
	if err := res.Close(); err != nil {
		return fmt.Errorf("store: insert measurements: %w", err)
	}
	return tx.Commit(ctx)
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID, &p.PlatformNumber, &p.CycleNumber, &p.ProfileDate,
		&p.Latitude, &p.Longitude, &p.OceanRegion, &p.FilePath, &p.CreatedAt,
	)
	return p, err
}

func scanProfiles(rows pgx.Rows) ([]domain.Profile, error) {
	profiles := make([]domain.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
