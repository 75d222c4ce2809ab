package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- LinearFallback tests --

func TestLinearFallback_SawtoothTrendsUp(t *testing.T) {
	series := mustSeries(t, sawtooth(60))

	result, ok := LinearFallback(series, 30, FallbackLabel(ModelARIMA))

	require.True(t, ok)
	assert.Equal(t, "ARIMA_Fallback", result.ModelType)
	assert.True(t, result.IsFallback())
	assert.Equal(t, TrendIncreasing, result.Trend)
	assertWellFormed(t, result, 30, series.Last().Date)
}

func TestLinearFallback_ExactLine(t *testing.T) {
	series := mustSeries(t, []Transaction{
		{Date: onDay(0), Amount: 10},
		{Date: onDay(1), Amount: -5},
		{Date: onDay(2), Amount: -5},
	})

	result, ok := LinearFallback(series, 2, "Test_Fallback")

	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{-5, -10}, result.Forecast, 1e-9)
	assert.Equal(t, TrendDecreasing, result.Trend)
	assert.InDelta(t, -5.5, result.ConfidenceInterval.Lower[0], 1e-9)
	assert.InDelta(t, -4.5, result.ConfidenceInterval.Upper[0], 1e-9)
	assert.InDelta(t, 0, result.Metrics.MAE, 1e-9)
}

func TestLinearFallback_FlatIsStable(t *testing.T) {
	series := mustSeries(t, []Transaction{
		{Date: onDay(0), Amount: 10},
		{Date: onDay(3), Amount: 0},
	})

	result, ok := LinearFallback(series, 3, "Test_Fallback")

	require.True(t, ok)
	assert.Equal(t, TrendStable, result.Trend)
}

func TestLinearFallback_SinglePointCannotFit(t *testing.T) {
	_, ok := LinearFallback(aggregateDays([]Transaction{{Date: onDay(0), Amount: 10}}), 3, "Test_Fallback")

	assert.False(t, ok)
}

// -- UltimateFallback tests --

func TestUltimateFallback_HoldsLastValue(t *testing.T) {
	series := aggregateDays([]Transaction{{Date: onDay(4), Amount: -250}})

	result := UltimateFallback(series, 5, time.Now())

	assert.Equal(t, UltimateFallbackLabel, result.ModelType)
	assert.Equal(t, TrendStable, result.Trend)
	assert.Equal(t, []float64{-250, -250, -250, -250, -250}, result.Forecast)
	assertWellFormed(t, result, 5, onDay(4))
}

func TestUltimateFallback_NoHistoryStartsFromNow(t *testing.T) {
	now := time.Date(2025, 3, 14, 17, 45, 0, 0, time.UTC)

	result := UltimateFallback(DailySeries{}, 3, now)

	assert.Equal(t, []float64{0, 0, 0}, result.Forecast)
	assert.Equal(t, []string{"2025-03-15", "2025-03-16", "2025-03-17"}, result.FutureDates)
}

func TestFallback_PrefersLinear(t *testing.T) {
	series := mustSeries(t, sawtooth(10))

	result := Fallback(series, 4, FallbackLabel(ModelSeasonal), time.Now())

	assert.Equal(t, "Prophet_Fallback", result.ModelType)
}
