package domain

import "time"

// Float is one physical instrument. Created the first time its platform
// number appears during bulk ingestion; never updated or deleted by the
// pipeline.
type Float struct {
	ID                  int64      `json:"id"`
	PlatformNumber      string     `json:"platform_number"`
	WMOID               *string    `json:"wmo_id,omitempty"`
	DeploymentDate      *time.Time `json:"deployment_date,omitempty"`
	DeploymentLatitude  *float64   `json:"deployment_latitude,omitempty"`
	DeploymentLongitude *float64   `json:"deployment_longitude,omitempty"`
	Status              *string    `json:"status,omitempty"`
	DataCenter          *string    `json:"data_center,omitempty"`
	ProjectName         *string    `json:"project_name,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Profile is one observation cycle of a Float. PlatformNumber is a soft
// link by value, not a relational constraint. FilePath is the archive
// discovery cache: nil until resolved, then persisted so discovery never
// repeats for this profile.
type Profile struct {
	ID             int64      `json:"id"`
	PlatformNumber string     `json:"platform_number"`
	CycleNumber    int        `json:"cycle_number"`
	ProfileDate    *time.Time `json:"profile_date,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	OceanRegion    *string    `json:"ocean_region,omitempty"`
	FilePath       *string    `json:"file_path,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Measurement is one depth-level sample of a Profile. Pressure,
// temperature, and salinity are independently nullable; a row with all
// three absent is never persisted. Depth mirrors pressure (1 dbar ~= 1 m).
type Measurement struct {
	ID          int64    `json:"id"`
	ProfileID   int64    `json:"profile_id"`
	Pressure    *float64 `json:"pressure,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Salinity    *float64 `json:"salinity,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
	Level       int      `json:"measurement_level"`
}

// IndexRecord is one parsed line of the global profile index. Ephemeral:
// used during resolution and ingestion, never stored verbatim.
type IndexRecord struct {
	FilePath       string
	PlatformNumber string
	Date           *time.Time // nil when the index date was unparsable
	Latitude       *float64
	Longitude      *float64
	Ocean          string // single-letter basin code, "" when absent
	RawLine        string // original line, kept for substring region matching
}

// ProfileSeries holds the three physical series extracted from one
// profile file, already collapsed to a single profile row. A nil slice
// means the quantity had no variable in the container; NaN marks a
// missing or masked entry within a series.
type ProfileSeries struct {
	Pressure    []float64
	Temperature []float64
	Salinity    []float64
}

// Empty reports whether no quantity was present at all.
func (s ProfileSeries) Empty() bool {
	return s.Pressure == nil && s.Temperature == nil && s.Salinity == nil
}
