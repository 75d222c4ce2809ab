package forecast

// Recommendation describes when a model is the right tool.
type Recommendation struct {
	Scenario string    `json:"scenario"`
	Model    ModelKind `json:"model"`
	Label    string    `json:"label"`
	Reason   string    `json:"reason"`
}

// ModelRecommendations lists which model suits which planning question.
func ModelRecommendations() []Recommendation {
	recs := []Recommendation{
		{Scenario: "short_term_7_30_days", Model: ModelARIMA, Reason: "Best for daily patterns and short-term trends"},
		{Scenario: "medium_term_30_90_days", Model: ModelSeasonal, Reason: "Best for seasonality and business cycles"},
		{Scenario: "multi_variable_analysis", Model: ModelRandomForest, Reason: "Best for category/currency analysis"},
		{Scenario: "robust_forecasting", Model: ModelEnsemble, Reason: "Combines all models for the most reliable predictions"},
		{Scenario: "business_planning", Model: ModelSeasonal, Reason: "Handles seasonality and recurring business events"},
		{Scenario: "risk_analysis", Model: ModelEnsemble, Reason: "Provides confidence intervals and multiple perspectives"},
	}
	for i := range recs {
		recs[i].Label = recs[i].Model.Label()
	}
	return recs
}
