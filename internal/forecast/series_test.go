package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 is a Monday.
var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func onDay(i int) time.Time {
	return day0.AddDate(0, 0, i)
}

// sawtooth alternates a 1000 inflow with an 800 outflow, one transaction per day.
func sawtooth(days int) []Transaction {
	txns := make([]Transaction, days)
	for i := range txns {
		tx := Transaction{Date: onDay(i), Amount: 1000, Direction: DirectionIn, Currency: "SGD", Category: "sales"}
		if i%2 == 1 {
			tx = Transaction{Date: onDay(i), Amount: 800, Direction: DirectionOut, Currency: "SGD", Category: "rent"}
		}
		txns[i] = tx
	}
	return txns
}

func mustSeries(t *testing.T, txns []Transaction) DailySeries {
	t.Helper()
	series, err := BuildDailySeries(txns)
	require.NoError(t, err)
	return series
}

// assertWellFormed checks the shape every result must have for a horizon.
func assertWellFormed(t *testing.T, r ModelResult, horizon int, last time.Time) {
	t.Helper()
	require.Len(t, r.Forecast, horizon)
	require.Len(t, r.FutureDates, horizon)
	require.Len(t, r.ConfidenceInterval.Lower, horizon)
	require.Len(t, r.ConfidenceInterval.Upper, horizon)
	for i := range r.Forecast {
		assert.LessOrEqual(t, r.ConfidenceInterval.Lower[i], r.Forecast[i], "lower bound at %d", i)
		assert.GreaterOrEqual(t, r.ConfidenceInterval.Upper[i], r.Forecast[i], "upper bound at %d", i)
		assert.Equal(t, last.AddDate(0, 0, i+1).Format(DateLayout), r.FutureDates[i])
	}
}

// -- BuildDailySeries tests --

func TestBuildDailySeries_ZeroFillsGaps(t *testing.T) {
	txns := []Transaction{
		{Date: onDay(3).Add(15 * time.Hour), Amount: 100},
		{Date: onDay(0), Amount: 250},
		{Date: onDay(3), Amount: -30},
	}

	series := mustSeries(t, txns)

	require.Equal(t, 4, series.Len())
	assert.Equal(t, []float64{250, 0, 0, 70}, series.Net())
	assert.Equal(t, []float64{250, 250, 250, 320}, series.Cumulative())
	assert.Equal(t, 2, series.Points[3].Count)
	assert.Equal(t, 0, series.Points[3].NetDirection)
	for i, d := range series.Dates() {
		assert.Equal(t, onDay(i), d)
	}
}

func TestBuildDailySeries_CumulativeIsRunningSum(t *testing.T) {
	series := mustSeries(t, sawtooth(60))

	assert.Equal(t, 60, series.Len())
	var sum float64
	for i, p := range series.Points {
		sum += p.Net
		assert.InDelta(t, sum, p.Cumulative, 1e-9, "day %d", i)
	}
	assert.InDelta(t, 6000, series.Last().Cumulative, 1e-9)
}

func TestBuildDailySeries_DirectionFlag(t *testing.T) {
	series := mustSeries(t, []Transaction{
		{Date: onDay(0), Amount: 50, Direction: DirectionOut},
		{Date: onDay(1), Amount: -20, Direction: DirectionIn},
	})

	assert.Equal(t, []float64{-50, 20}, series.Net())
	assert.Equal(t, -1, series.Points[0].NetDirection)
}

func TestBuildDailySeries_SingleDayIsInsufficient(t *testing.T) {
	_, err := BuildDailySeries([]Transaction{
		{Date: onDay(0), Amount: 10},
		{Date: onDay(0).Add(time.Hour), Amount: 5},
	})

	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.Equal(t, KindInsufficientData, KindOf(err))
}

func TestBuildDailySeries_Empty(t *testing.T) {
	_, err := BuildDailySeries(nil)

	assert.ErrorIs(t, err, ErrInsufficientData)
}
