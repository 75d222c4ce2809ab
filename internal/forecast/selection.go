package forecast

import (
	"strings"
)

const (
	shortHorizonDays  = 30
	mediumHorizonDays = 90
)

// SelectModelsForHorizon picks the models to run for a horizon: the ARIMA model alone up to 30
// days, the seasonal model alone up to 90 days, and the full ensemble beyond that.
func SelectModelsForHorizon(days int) []ModelKind {
	switch {
	case days <= shortHorizonDays:
		return []ModelKind{ModelARIMA}
	case days <= mediumHorizonDays:
		return []ModelKind{ModelSeasonal}
	default:
		return []ModelKind{ModelARIMA, ModelSeasonal, ModelRandomForest}
	}
}

// ParseModelKind accepts the model identifiers and their display labels, case-insensitively.
func ParseModelKind(s string) (ModelKind, bool) {
	switch normaliseKind(s) {
	case "arima":
		return ModelARIMA, true
	case "seasonal", "prophet":
		return ModelSeasonal, true
	case "random_forest", "randomforest", "rf":
		return ModelRandomForest, true
	case "ensemble":
		return ModelEnsemble, true
	default:
		return "", false
	}
}

// resolveModels expands an explicit model list, or picks one by horizon when it is empty.
// Ensemble stands for all three models; duplicates are dropped.
func resolveModels(requested []ModelKind, horizon int) []ModelKind {
	if len(requested) == 0 {
		return SelectModelsForHorizon(horizon)
	}
	seen := make(map[ModelKind]bool, 3)
	var out []ModelKind
	add := func(k ModelKind) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range requested {
		switch k {
		case ModelEnsemble:
			add(ModelARIMA)
			add(ModelSeasonal)
			add(ModelRandomForest)
		case ModelARIMA, ModelSeasonal, ModelRandomForest:
			add(k)
		}
	}
	if len(out) == 0 {
		return SelectModelsForHorizon(horizon)
	}
	return out
}

func clampHorizon(days int) int {
	if days < 1 {
		return DefaultHorizonDays
	}
	return days
}

func normaliseKind(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
