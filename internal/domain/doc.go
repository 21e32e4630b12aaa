// Package domain models Argo float profile data and the pure logic of the
// ingestion pipeline: index parsing, archive-path resolution, and
// depth-series assembly.
//
// # Data Source
//
// Argo is a global array of autonomous profiling floats. Each float
// surfaces every ~10 days and transmits one profile: pressure,
// temperature, and salinity sampled at dozens to thousands of depth
// levels. The GDAC (Global Data Assembly Centre) publishes everything
// over plain HTTP: a global index of all profile files, and one NetCDF
// file per profile underneath a `dac/` root.
//
// # Index Format
//
// The global profile index is comma-separated text, optionally gzipped
// (detected by the 0x1f 0x8b magic bytes, never by file extension).
// Lines starting with '#' are header comments. Data columns:
//
//	file,date,latitude,longitude,ocean,profiler_type,institution,date_update
//	aoml/13857/profiles/R13857_001.nc,19970729200300,0.267,-16.032,A,845,AO,...
//
// Only the first two columns are required here; anything after ocean is
// ignored. Dates appear in several shapes across mirrors and vintages:
// ISO-8601, YYYY-MM-DD, YYYYMMDDHHMMSS, or bare YYYYMMDD. An unparsable
// date degrades to "unknown" rather than invalidating the line.
//
// The platform number (the float's WMO-style identifier) is not a column;
// it is recovered from the file path. For the canonical layout
// `<dac>/<platform>/profiles/<file>.nc` that is the third-to-last
// segment, since "profiles" is a container directory. Flatter mirrors
// omit the container, putting the platform second-to-last.
//
// Ocean basin codes are single letters: A (Atlantic), P (Pacific),
// I (Indian).
//
// # Profile Files
//
// Each profile is a self-describing NetCDF container. The physical
// quantities carry two naming variants: a delayed-mode, quality-adjusted
// series (PRES_ADJUSTED, TEMP_ADJUSTED, PSAL_ADJUSTED) and the raw
// telemetry (PRES, TEMP, PSAL). Adjusted wins when present. Variables may
// be one-dimensional (a single profile) or two-dimensional
// (N_PROF x N_LEVELS); multi-profile files are collapsed to the first row
// containing a finite value, falling back to row 0.
//
// Depth is populated from pressure using the 1 dbar ~= 1 m approximation;
// Argo profile files carry no independent depth variable. This is a
// deliberate simplification carried over from the dashboard's data model.
package domain
