package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnIndex(t *testing.T, frame FeatureFrame, name string) int {
	t.Helper()
	for i, c := range frame.Columns {
		if c == name {
			return i
		}
	}
	t.Fatalf("column %q not found in %v", name, frame.Columns)
	return -1
}

// -- BuildFeatures tests --

func TestBuildFeatures_DropsWarmup(t *testing.T) {
	txns := sawtooth(40)
	series := mustSeries(t, txns)

	frame := BuildFeatures(txns, series)

	require.Len(t, frame.Rows, 10)
	require.Len(t, frame.Target, 10)
	assert.Equal(t, onDay(30), frame.Rows[0].Date)
	assert.Equal(t, series.Points[30].Cumulative, frame.Target[0])
	assert.Equal(t, baseColumns[:], frame.Columns[:baseColumnCount])
	assert.Equal(t, []string{"category:rent", "category:sales", "currency:SGD"}, frame.Columns[baseColumnCount:])
}

func TestBuildFeatures_RowValues(t *testing.T) {
	txns := sawtooth(40)
	series := mustSeries(t, txns)

	frame := BuildFeatures(txns, series)
	row := frame.Rows[1] // day 31, 2024-02-01, a Thursday

	assert.Equal(t, -800.0, row.Values[colTotalAmount])
	assert.Equal(t, -800.0, row.Values[colAvgAmount])
	assert.Equal(t, 1.0, row.Values[colTransactionCount])
	assert.Equal(t, -1.0, row.Values[colNetDirection])
	assert.Equal(t, 3.0, row.Values[colDayOfWeek])
	assert.Equal(t, 1.0, row.Values[colDayOfMonth])
	assert.Equal(t, 2.0, row.Values[colMonth])
	assert.Equal(t, 1.0, row.Values[colQuarter])
	assert.Equal(t, 0.0, row.Values[colIsWeekend])
	assert.Equal(t, 0.0, row.Values[colIsMonthEnd])
	assert.Equal(t, 1000.0, row.Values[colAmountLag1])
	assert.Equal(t, 1000.0, row.Values[colAmountLag7])
	assert.Equal(t, -800.0, row.Values[colAmountLag30])
	assert.InDelta(t, (3*1000.0-4*800.0)/7, row.Values[colAmount7dAvg], 1e-9)
	assert.InDelta(t, 100.0, row.Values[colAmount30dAvg], 1e-9)
	assert.Equal(t, 1.0, row.Values[colCount7dAvg])
	assert.Equal(t, -800.0, row.Values[columnIndex(t, frame, "category:rent")])
	assert.Equal(t, 0.0, row.Values[columnIndex(t, frame, "category:sales")])
	assert.Equal(t, -800.0, row.Values[columnIndex(t, frame, "currency:SGD")])
}

func TestBuildFeatures_ShortHistoryHasNoRows(t *testing.T) {
	txns := sawtooth(30)

	frame := BuildFeatures(txns, mustSeries(t, txns))

	assert.Empty(t, frame.Rows)
	assert.NotEmpty(t, frame.Columns)
}

// -- AdvanceFeatures tests --

func TestAdvanceFeatures_RollsCalendarOnly(t *testing.T) {
	txns := sawtooth(40)
	frame := BuildFeatures(txns, mustSeries(t, txns))
	prev := frame.Rows[len(frame.Rows)-1]
	snapshot := append([]float64(nil), prev.Values...)
	next := time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC) // Saturday

	got := AdvanceFeatures(prev, next)

	assert.Equal(t, snapshot, prev.Values, "previous row must not change")
	assert.Equal(t, next, got.Date)
	assert.Equal(t, 5.0, got.Values[colDayOfWeek])
	assert.Equal(t, 30.0, got.Values[colDayOfMonth])
	assert.Equal(t, 3.0, got.Values[colMonth])
	assert.Equal(t, 1.0, got.Values[colQuarter])
	assert.Equal(t, 1.0, got.Values[colIsWeekend])
	assert.Equal(t, 1.0, got.Values[colIsMonthEnd])
	for _, col := range []int{colTotalAmount, colAmount7dAvg, colAmount30dAvg, colAmountLag1, colAmountLag30} {
		assert.Equal(t, prev.Values[col], got.Values[col], "column %s", frame.Columns[col])
	}
}

func TestAdvanceFeatures_QuarterBoundary(t *testing.T) {
	prev := FeatureRow{Values: make([]float64, baseColumnCount)}

	got := AdvanceFeatures(prev, time.Date(2024, 10, 1, 9, 30, 0, 0, time.UTC))

	assert.Equal(t, 4.0, got.Values[colQuarter])
	assert.Equal(t, 10.0, got.Values[colMonth])
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), got.Date)
}
