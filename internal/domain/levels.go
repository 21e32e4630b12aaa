package domain

import "math"

// SelectProfileRow collapses a possibly two-dimensional variable to a
// single profile's series: the first row containing at least one finite
// value, falling back to row 0. This assumes single-profile files even
// though the container technically supports several; multi-profile files
// beyond the first finite row are ignored. A known approximation.
func SelectProfileRow(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		for _, v := range row {
			if isFinite(v) {
				return row
			}
		}
	}
	return rows[0]
}

// BuildLevels assembles per-level measurement rows from the extracted
// series. All present series are truncated to their shortest common
// length; absent quantities (nil series) do not constrain it. Non-finite
// entries coerce to absent, depth mirrors pressure, and rows with depth,
// temperature, and salinity all absent are dropped. The level index is
// the position in the source series, so it stays stable across drops.
func BuildLevels(s ProfileSeries) []Measurement {
	n := -1
	for _, series := range [][]float64{s.Pressure, s.Temperature, s.Salinity} {
		if series == nil {
			continue
		}
		if n == -1 || len(series) < n {
			n = len(series)
		}
	}
	if n <= 0 {
		return nil
	}

	rows := make([]Measurement, 0, n)
	for i := 0; i < n; i++ {
		row := Measurement{Level: i}
		if s.Pressure != nil {
			row.Pressure = finiteOrAbsent(s.Pressure[i])
		}
		if s.Temperature != nil {
			row.Temperature = finiteOrAbsent(s.Temperature[i])
		}
		if s.Salinity != nil {
			row.Salinity = finiteOrAbsent(s.Salinity[i])
		}
		if row.Pressure != nil {
			depth := *row.Pressure
			row.Depth = &depth
		}
		if row.Depth == nil && row.Temperature == nil && row.Salinity == nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func finiteOrAbsent(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	out := v
	return &out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
