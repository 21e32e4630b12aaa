// Package netcdf reads Argo profile files through the pure-Go NetCDF
// implementation. It is the pluggable extraction backend: composition
// wires it into the measurement pipeline, and everything numeric past
// variable selection lives in the domain package.
package netcdf

import (
	"fmt"
	"log/slog"
	"math"

	gonetcdf "github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/floatchat/argo-data-service/internal/domain"
)

// Variable aliases per physical quantity, quality-adjusted variant first.
var (
	pressureAliases    = []string{"PRES_ADJUSTED", "PRES", "PRESSURE"}
	temperatureAliases = []string{"TEMP_ADJUSTED", "TEMP"}
	salinityAliases    = []string{"PSAL_ADJUSTED", "PSAL"}
)

// Extractor pulls depth/temperature/salinity series out of a NetCDF
// profile file on local disk.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractSeries opens the container and extracts one series per
// quantity. A quantity with no matching variable comes back nil; the
// caller decides whether an entirely empty result means "no data".
// Masked (fill-value) entries are already NaN in the returned series.
func (e *Extractor) ExtractSeries(path string) (domain.ProfileSeries, error) {
	nc, err := gonetcdf.Open(path)
	if err != nil {
		return domain.ProfileSeries{}, fmt.Errorf("netcdf: open container: %w", err)
	}
	defer nc.Close()

	return domain.ProfileSeries{
		Pressure:    e.series(nc, pressureAliases),
		Temperature: e.series(nc, temperatureAliases),
		Salinity:    e.series(nc, salinityAliases),
	}, nil
}

// series tries each alias in order and collapses the first hit to a
// single profile row. Unreadable or oddly-typed variables are skipped
// like absent ones.
func (e *Extractor) series(nc api.Group, aliases []string) []float64 {
	for _, name := range aliases {
		vr, err := nc.GetVariable(name)
		if err != nil || vr == nil {
			continue
		}
		rows, ok := toRows(vr.Values)
		if !ok {
			e.logger.Debug("variable has unsupported shape", "variable", name)
			continue
		}
		row := domain.SelectProfileRow(rows)
		fill, hasFill := fillValue(vr.Attributes)
		return maskFill(row, fill, hasFill)
	}
	return nil
}

// toRows normalizes the supported value shapes to row-major float64.
// One-dimensional variables become a single row.
func toRows(values any) ([][]float64, bool) {
	switch v := values.(type) {
	case []float64:
		return [][]float64{v}, true
	case []float32:
		return [][]float64{widen(v)}, true
	case [][]float64:
		return v, true
	case [][]float32:
		rows := make([][]float64, len(v))
		for i := range v {
			rows[i] = widen(v[i])
		}
		return rows, true
	case float64:
		return [][]float64{{v}}, true
	case float32:
		return [][]float64{{float64(v)}}, true
	}
	return nil, false
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = float64(v[i])
	}
	return out
}

// fillValue reads the conventional _FillValue attribute, if any.
func fillValue(attrs api.AttributeMap) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, has := attrs.Get("_FillValue")
	if !has {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	}
	return 0, false
}

// maskFill rewrites fill-valued entries as NaN so the domain layer sees
// a single representation of "absent".
func maskFill(row []float64, fill float64, hasFill bool) []float64 {
	if !hasFill || row == nil {
		return row
	}
	out := make([]float64, len(row))
	for i, v := range row {
		if v == fill {
			out[i] = math.NaN()
		} else {
			out[i] = v
		}
	}
	return out
}
