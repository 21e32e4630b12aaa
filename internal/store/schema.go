package store

import "context"

// Schema mirrors the dashboard's relational model. Measurements cascade
// with their profile; floats are linked to profiles by platform number
// only, not by constraint.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS argo_floats (
    id BIGSERIAL PRIMARY KEY,
    platform_number TEXT NOT NULL UNIQUE,
    wmo_id TEXT,
    deployment_date TIMESTAMPTZ,
    deployment_latitude DOUBLE PRECISION,
    deployment_longitude DOUBLE PRECISION,
    status TEXT,
    data_center TEXT,
    project_name TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS argo_profiles (
    id BIGSERIAL PRIMARY KEY,
    platform_number TEXT NOT NULL,
    cycle_number INTEGER NOT NULL DEFAULT 1,
    profile_date TIMESTAMPTZ,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    ocean_region TEXT,
    file_path TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_argo_profiles_platform ON argo_profiles (platform_number);
CREATE INDEX IF NOT EXISTS idx_argo_profiles_date ON argo_profiles (profile_date);

CREATE TABLE IF NOT EXISTS argo_measurements (
    id BIGSERIAL PRIMARY KEY,
    profile_id BIGINT NOT NULL REFERENCES argo_profiles(id) ON DELETE CASCADE,
    pressure DOUBLE PRECISION,
    temperature DOUBLE PRECISION,
    salinity DOUBLE PRECISION,
    depth DOUBLE PRECISION,
    measurement_level INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_argo_measurements_profile ON argo_measurements (profile_id);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}
