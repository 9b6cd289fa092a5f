package ifr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_GetSetByColumn(t *testing.T) {
	var m Metrics
	for i, col := range MetricColumns {
		require.NoError(t, m.Set(col, float64(i+1)))
	}
	for i, col := range MetricColumns {
		v, err := m.Get(col)
		require.NoError(t, err)
		assert.Equal(t, float64(i+1), v, col)
	}
	assert.Equal(t, 1.0, m.WetTim)
	assert.Equal(t, 15.0, m.PeakDur10)
}

func TestMetrics_UnknownColumnIsLookupError(t *testing.T) {
	var m Metrics
	_, err := m.Get("Peak_100")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookup))

	var le *LookupError
	require.True(t, errors.As(m.Set("Nope", 1), &le))
	assert.Equal(t, "functional flows metrics", le.Table)
}

func TestMetrics_PeakUnknownInterval(t *testing.T) {
	_, _, err := testMetrics().Peak(25)
	assert.ErrorIs(t, err, ErrLookup)
}

func TestMetricsTable_ForMissingType(t *testing.T) {
	tbl := MetricsTable{Dry: testMetrics()}
	_, err := tbl.For(Wet)
	assert.ErrorIs(t, err, ErrLookup)
}

func TestMetricsTable_Validate(t *testing.T) {
	require.NoError(t, testTable().Validate())

	missing := MetricsTable{Dry: testMetrics(), Wet: testMetrics()}
	assert.ErrorContains(t, missing.Validate(), "moderate")

	bad := testTable()
	m := bad[Wet]
	m.WetTim = 30
	bad[Wet] = m
	assert.ErrorContains(t, bad.Validate(), "Wet_Tim")
}

func TestFloodDefinitions_OrderedHighestFirst(t *testing.T) {
	defs, err := FloodDefinitions(testMetrics(), []int{2, 10, 5})
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, []int{10, 5, 2}, []int{defs[0].ReturnInterval, defs[1].ReturnInterval, defs[2].ReturnInterval})
	assert.Equal(t, 2, defs[0].DurationDays)
	assert.InDelta(t, CFSToMCM(3000)*2, defs[0].VolumeMCM(), eps)
}

func TestFloodDefinitions_SkipsZeroDuration(t *testing.T) {
	m := testMetrics()
	m.PeakDur5 = 0
	defs, err := FloodDefinitions(m, []int{10, 5, 2})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, 10, defs[0].ReturnInterval)
	assert.Equal(t, 2, defs[1].ReturnInterval)
}

func TestIsValidWaterYearType(t *testing.T) {
	assert.True(t, IsValidWaterYearType("dry"))
	assert.True(t, IsValidWaterYearType("wet"))
	assert.False(t, IsValidWaterYearType("Wet"))
	assert.False(t, IsValidWaterYearType(""))
}
