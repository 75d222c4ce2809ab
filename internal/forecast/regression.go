package forecast

import (
	"fmt"
	"math"

	"github.com/carson-networks/cashflow-forecaster/internal/forest"
)

// FitRegression trains a random forest on engineered daily features and forecasts recursively,
// one day at a time. Metrics are measured on a chronological hold-out of the last rows.
func FitRegression(txns []Transaction, series DailySeries, horizon int, cfg Config) Outcome {
	cfg = cfg.withDefaults()
	horizon = clampHorizon(horizon)
	rc := cfg.Regression

	frame := BuildFeatures(txns, series)
	if len(frame.Rows) < rc.MinRows {
		return failed(ModelRandomForest, insufficient(ModelRandomForest,
			"need at least %d feature rows, got %d", rc.MinRows, len(frame.Rows)))
	}

	n := len(frame.Rows)
	nTest := int(math.Ceil(float64(n) * rc.TestFraction))
	nTrain := n - nTest

	x := make([][]float64, n)
	for i, row := range frame.Rows {
		x[i] = row.Values
	}
	scaler := forest.FitScaler(x[:nTrain])

	model := forest.New(rc.Forest)
	if err := model.Train(scaler.TransformAll(x[:nTrain]), frame.Target[:nTrain]); err != nil {
		return failed(ModelRandomForest, fmt.Errorf("train: %w", err))
	}

	predicted := make([]float64, nTest)
	for i := range predicted {
		v, err := model.Predict(scaler.Transform(x[nTrain+i]))
		if err != nil {
			return failed(ModelRandomForest, fmt.Errorf("evaluate: %w", err))
		}
		predicted[i] = v
	}

	last := series.Last()
	row := frame.Rows[n-1]
	forecast := make([]float64, horizon)
	for h := range forecast {
		row = AdvanceFeatures(row, last.Date.AddDate(0, 0, h+1))
		v, err := model.Predict(scaler.Transform(row.Values))
		if err != nil {
			return failed(ModelRandomForest, fmt.Errorf("forecast step %d: %w", h+1, err))
		}
		forecast[h] = v
	}
	band := percentBand(forecast, rc.BandFraction)
	if err := checkFinite(forecast, band); err != nil {
		return failed(ModelRandomForest, err)
	}

	importances := model.FeatureImportances()
	importance := make(map[string]float64, len(frame.Columns))
	for j, name := range frame.Columns {
		importance[name] = importances[j]
	}

	return success(ModelRandomForest, ModelResult{
		ModelType:          ModelRandomForest.Label(),
		Forecast:           forecast,
		ConfidenceInterval: band,
		FutureDates:        futureDates(last.Date, horizon),
		Metrics:            fitMetrics(frame.Target[nTrain:], predicted),
		Trend:              trendBetween(last.Cumulative, forecast[len(forecast)-1]),
		FeatureImportance:  importance,
	})
}
