package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	fallbackSuffix = "_Fallback"
	// UltimateFallbackLabel tags the flat last-value forecast.
	UltimateFallbackLabel = "Ultimate" + fallbackSuffix
	fallbackBand          = 0.1
)

// FallbackLabel is the model_type a fallback reports when it stands in for kind.
func FallbackLabel(kind ModelKind) string {
	return kind.Label() + fallbackSuffix
}

// LinearFallback extrapolates a least-squares line through the cumulative series against the
// day index. It reports ok=false when the line cannot be fitted, which happens for fewer than
// two points.
func LinearFallback(series DailySeries, horizon int, label string) (ModelResult, bool) {
	n := series.Len()
	if n < 2 {
		return ModelResult{}, false
	}
	y := series.Cumulative()
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) || math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return ModelResult{}, false
	}

	forecast := make([]float64, horizon)
	for h := range forecast {
		forecast[h] = intercept + slope*float64(n+h)
	}
	fitted := make([]float64, n)
	for i := range fitted {
		fitted[i] = intercept + slope*x[i]
	}

	trend := TrendStable
	switch {
	case slope > 0:
		trend = TrendIncreasing
	case slope < 0:
		trend = TrendDecreasing
	}

	return ModelResult{
		ModelType:          label,
		Forecast:           forecast,
		ConfidenceInterval: percentBand(forecast, fallbackBand),
		FutureDates:        futureDates(series.Last().Date, horizon),
		Metrics:            fitMetrics(y, fitted),
		Trend:              trend,
	}, true
}

// UltimateFallback holds the last cumulative value flat. With no history at all the value is
// zero and the dates start the day after now.
func UltimateFallback(series DailySeries, horizon int, now time.Time) ModelResult {
	var value float64
	last := calendarDay(now)
	if series.Len() > 0 {
		value = series.Last().Cumulative
		last = series.Last().Date
	}
	forecast := make([]float64, horizon)
	for h := range forecast {
		forecast[h] = value
	}
	return ModelResult{
		ModelType:          UltimateFallbackLabel,
		Forecast:           forecast,
		ConfidenceInterval: percentBand(forecast, fallbackBand),
		FutureDates:        futureDates(last, horizon),
		Trend:              TrendStable,
	}
}

// Fallback runs the linear tier and drops to the ultimate tier when that cannot fit. It
// always returns a result.
func Fallback(series DailySeries, horizon int, label string, now time.Time) ModelResult {
	if result, ok := LinearFallback(series, horizon, label); ok {
		return result
	}
	return UltimateFallback(series, horizon, now)
}
