// Package forecast turns a ledger of cash transactions into daily cashflow forecasts. Three
// models (ARIMA, a Prophet-style seasonal model and a random forest on engineered features) can
// run alone or blended, and every failure path ends in a linear or flat fallback, so a caller
// always gets a well-formed result.
package forecast

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Forecaster runs forecasts with a fixed configuration. It holds no per-call state and is safe
// for concurrent use.
type Forecaster struct {
	cfg  Config
	diag diagnostics
}

func New(cfg Config) *Forecaster {
	cfg = cfg.withDefaults()
	return &Forecaster{
		cfg:  cfg,
		diag: diagnostics{log: cfg.Logger, verbose: cfg.Verbose},
	}
}

// Forecast builds the daily series from txns and runs the requested models, or the models
// chosen for the horizon when none are named. It never fails: degraded results carry a
// "_Fallback" model type.
func (f *Forecaster) Forecast(txns []Transaction, req Request) Report {
	horizon := clampHorizon(req.HorizonDays)
	models := resolveModels(req.Models, horizon)

	report := Report{
		Scenario:    req.Scenario,
		HorizonDays: horizon,
		Models:      make([]string, len(models)),
	}
	for i, m := range models {
		report.Models[i] = string(m)
	}

	label := FallbackLabel(ModelEnsemble)
	if len(models) == 1 {
		label = FallbackLabel(models[0])
	}

	series, err := BuildDailySeries(txns)
	if err != nil {
		f.diag.fellBack(ModelEnsemble, horizon, err)
		report.ModelResult = Fallback(aggregateDays(txns), horizon, label, f.cfg.Now())
		return report
	}

	f.cfg.Logger.WithFields(logrus.Fields{
		"days":     series.Len(),
		"horizon":  horizon,
		"models":   report.Models,
		"scenario": req.Scenario,
	}).Debug("Forecast.Start")

	if len(models) == 1 {
		outcome := f.run(models[0], txns, series, horizon)
		if !outcome.OK() {
			f.diag.fellBack(outcome.Model, horizon, outcome.Err)
			report.ModelResult = Fallback(series, horizon, label, f.cfg.Now())
			return report
		}
		report.ModelResult = outcome.Result
		return report
	}

	outcomes := make([]Outcome, 0, len(models))
	for _, m := range models {
		outcomes = append(outcomes, f.run(m, txns, series, horizon))
	}
	ensemble, err := Combine(series, horizon, outcomes, f.cfg)
	if err != nil {
		f.diag.fellBack(ModelEnsemble, horizon, err)
		report.ModelResult = Fallback(series, horizon, label, f.cfg.Now())
		return report
	}
	report.EnsembleResult = ensemble
	return report
}

// run fits one model. A panic inside a model is reported as that model's failure.
func (f *Forecaster) run(kind ModelKind, txns []Transaction, series DailySeries, horizon int) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = failed(kind, fmt.Errorf("panic: %v", r))
		}
	}()

	switch kind {
	case ModelARIMA:
		return FitARIMA(series, horizon, f.cfg)
	case ModelSeasonal:
		return FitSeasonal(series, horizon, f.cfg)
	case ModelRandomForest:
		return FitRegression(txns, series, horizon, f.cfg)
	default:
		return failed(kind, insufficient(kind, "unknown model"))
	}
}
