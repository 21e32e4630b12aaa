package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func TestSelectProfileRow(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
		want []float64
	}{
		{"empty", nil, nil},
		{"single row", [][]float64{{1, 2, 3}}, []float64{1, 2, 3}},
		{"first finite row wins", [][]float64{{nan, nan}, {nan, 5.5}, {1, 2}}, []float64{nan, 5.5}},
		{"all masked falls back to row zero", [][]float64{{nan, nan}, {nan, nan}}, [][]float64{{nan, nan}, {nan, nan}}[0]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectProfileRow(tt.rows)
			require.Equal(t, len(tt.want), len(got))
			for i := range tt.want {
				if math.IsNaN(tt.want[i]) {
					assert.True(t, math.IsNaN(got[i]))
				} else {
					assert.Equal(t, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestBuildLevels_TruncatesToShortestSeries(t *testing.T) {
	series := ProfileSeries{
		Pressure:    make([]float64, 10),
		Temperature: make([]float64, 8),
		Salinity:    make([]float64, 9),
	}
	for i := range series.Pressure {
		series.Pressure[i] = float64(i + 1)
	}
	for i := range series.Temperature {
		series.Temperature[i] = 20 - float64(i)
	}
	for i := range series.Salinity {
		series.Salinity[i] = 35 + float64(i)*0.01
	}

	rows := BuildLevels(series)
	assert.Len(t, rows, 8)
}

func TestBuildLevels_AbsentSeriesDoesNotConstrainLength(t *testing.T) {
	rows := BuildLevels(ProfileSeries{
		Temperature: []float64{12.3, 12.1, nan, 11.8, 11.5},
		Salinity:    []float64{35.1, 35.2, 35.2, nan, 35.4},
	})
	require.Len(t, rows, 5)
	for _, row := range rows {
		assert.Nil(t, row.Pressure)
		assert.Nil(t, row.Depth)
	}
}

func TestBuildLevels_RowFiltering(t *testing.T) {
	t.Run("all-absent row dropped", func(t *testing.T) {
		rows := BuildLevels(ProfileSeries{
			Pressure:    []float64{1, nan},
			Temperature: []float64{10, nan},
			Salinity:    []float64{35, math.Inf(1)},
		})
		require.Len(t, rows, 1)
		assert.Equal(t, 0, rows[0].Level)
	})

	t.Run("absent depth with present temperature persists", func(t *testing.T) {
		rows := BuildLevels(ProfileSeries{
			Pressure:    []float64{nan},
			Temperature: []float64{12.3},
			Salinity:    []float64{nan},
		})
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].Depth)
		assert.Nil(t, rows[0].Pressure)
		require.NotNil(t, rows[0].Temperature)
		assert.Equal(t, 12.3, *rows[0].Temperature)
	})

	t.Run("level index follows the source series", func(t *testing.T) {
		rows := BuildLevels(ProfileSeries{
			Temperature: []float64{10, nan, 8},
		})
		require.Len(t, rows, 2)
		assert.Equal(t, 0, rows[0].Level)
		assert.Equal(t, 2, rows[1].Level)
	})

	t.Run("empty series yields nothing", func(t *testing.T) {
		assert.Nil(t, BuildLevels(ProfileSeries{}))
		assert.Nil(t, BuildLevels(ProfileSeries{Temperature: []float64{}}))
	})
}

func TestBuildLevels_DepthMirrorsPressure(t *testing.T) {
	rows := BuildLevels(ProfileSeries{
		Pressure:    []float64{5.5, 100.0},
		Temperature: []float64{18.2, 4.1},
	})
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Depth)
	assert.Equal(t, 5.5, *rows[0].Depth)
	require.NotNil(t, rows[1].Depth)
	assert.Equal(t, 100.0, *rows[1].Depth)
}

func TestBuildLevels_NonFiniteCoercion(t *testing.T) {
	rows := BuildLevels(ProfileSeries{
		Pressure:    []float64{1, 2, 3},
		Temperature: []float64{nan, math.Inf(-1), 7.7},
		Salinity:    []float64{35, 35.1, nan},
	})
	require.Len(t, rows, 3)
	assert.Nil(t, rows[0].Temperature)
	assert.Nil(t, rows[1].Temperature)
	require.NotNil(t, rows[2].Temperature)
	assert.Equal(t, 7.7, *rows[2].Temperature)
	assert.Nil(t, rows[2].Salinity)
}
