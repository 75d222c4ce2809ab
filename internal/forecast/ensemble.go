package forecast

import (
	"fmt"
	"math"
)

// Combine blends the model outcomes into one forecast. Models that lacked data are left out;
// models that failed any other way are replaced by their fallback and still weighted. The
// weights are renormalised over the members that remain.
func Combine(series DailySeries, horizon int, outcomes []Outcome, cfg Config) (EnsembleResult, error) {
	cfg = cfg.withDefaults()
	horizon = clampHorizon(horizon)
	diag := diagnostics{log: cfg.Logger, verbose: cfg.Verbose}

	type member struct {
		kind   ModelKind
		result ModelResult
		weight float64
	}
	var members []member
	for _, o := range outcomes {
		result := o.Result
		if !o.OK() {
			if KindOf(o.Err) == KindInsufficientData {
				diag.fitFailed(o.Model, nil, o.Err)
				continue
			}
			diag.fellBack(o.Model, horizon, o.Err)
			result = Fallback(series, horizon, FallbackLabel(o.Model), cfg.Now())
		}
		if err := validateResult(result, horizon); err != nil {
			return EnsembleResult{}, fmt.Errorf("%s: %w", o.Model, err)
		}
		members = append(members, member{kind: o.Model, result: result, weight: math.Max(cfg.Weights.of(o.Model), 0)})
	}
	if len(members) == 0 {
		return EnsembleResult{}, insufficient(ModelEnsemble, "no model produced a forecast")
	}

	var total float64
	for _, m := range members {
		total += m.weight
	}
	for i := range members {
		if total > 0 {
			members[i].weight /= total
		} else {
			members[i].weight = 1 / float64(len(members))
		}
	}

	out := EnsembleResult{
		ModelResult: ModelResult{
			ModelType: ModelEnsemble.Label(),
			Forecast:  make([]float64, horizon),
			ConfidenceInterval: Interval{
				Lower: make([]float64, horizon),
				Upper: make([]float64, horizon),
			},
			FutureDates: futureDates(series.Last().Date, horizon),
			Metrics:     Metrics{ModelMAE: make(map[string]float64, len(members))},
		},
		ModelWeights:     make(map[string]float64, len(members)),
		IndividualModels: make(map[string]ModelResult, len(members)),
	}

	count := float64(len(members))
	for _, m := range members {
		for h := 0; h < horizon; h++ {
			out.Forecast[h] += m.weight * m.result.Forecast[h]
			out.ConfidenceInterval.Lower[h] += m.weight * m.result.ConfidenceInterval.Lower[h]
			out.ConfidenceInterval.Upper[h] += m.weight * m.result.ConfidenceInterval.Upper[h]
		}
		key := string(m.kind)
		out.ModelWeights[key] = m.weight
		out.IndividualModels[key] = m.result
		out.Metrics.ModelMAE[key] = m.result.Metrics.MAE
		out.Metrics.MAE += m.result.Metrics.MAE / count
		out.Metrics.RMSE += m.result.Metrics.RMSE / count
		out.Metrics.R2 += m.result.Metrics.R2 / count
	}
	out.Trend = trendBetween(series.Last().Cumulative, out.Forecast[horizon-1])
	return out, nil
}

// validateResult checks that a member's arrays have the right length and hold finite numbers.
func validateResult(r ModelResult, horizon int) error {
	lengths := []int{len(r.Forecast), len(r.ConfidenceInterval.Lower), len(r.ConfidenceInterval.Upper), len(r.FutureDates)}
	for _, l := range lengths {
		if l != horizon {
			return fmt.Errorf("%w: %s has %d values, want %d", ErrMalformedForecast, r.ModelType, l, horizon)
		}
	}
	return checkFinite(r.Forecast, r.ConfidenceInterval)
}
