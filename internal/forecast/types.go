package forecast

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for every date crossing the JSON boundary.
const DateLayout = "2006-01-02"

// Direction flags which way money moved when the amount itself is unsigned.
type Direction int8

const (
	DirectionUnspecified Direction = iota
	DirectionIn
	DirectionOut
)

// Transaction is a single ledger movement already normalised to the base currency.
type Transaction struct {
	Date      time.Time
	Amount    float64
	Direction Direction
	Currency  string
	Category  string
}

// SignedAmount returns the amount with inflows positive and outflows negative.
func (t Transaction) SignedAmount() float64 {
	switch t.Direction {
	case DirectionIn:
		return math.Abs(t.Amount)
	case DirectionOut:
		return -math.Abs(t.Amount)
	default:
		return t.Amount
	}
}

// Trend is a coarse classification of where a forecast ends relative to the last observation.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// ModelKind identifies one of the forecasting models.
type ModelKind string

const (
	ModelARIMA        ModelKind = "arima"
	ModelSeasonal     ModelKind = "seasonal"
	ModelRandomForest ModelKind = "random_forest"
	ModelEnsemble     ModelKind = "ensemble"
)

// Label is the model_type reported in results.
func (k ModelKind) Label() string {
	switch k {
	case ModelARIMA:
		return "ARIMA"
	case ModelSeasonal:
		return "Prophet"
	case ModelRandomForest:
		return "RandomForest"
	case ModelEnsemble:
		return "Ensemble"
	default:
		return string(k)
	}
}

// Interval is a confidence band, index-aligned with the forecast it belongs to.
type Interval struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// Metrics are in-sample (or held-out, for the regression model) fit diagnostics.
type Metrics struct {
	MAE      float64            `json:"mae"`
	RMSE     float64            `json:"rmse"`
	R2       float64            `json:"r2_score"`
	AIC      *float64           `json:"aic,omitempty"`
	ModelMAE map[string]float64 `json:"model_mae,omitempty"`
}

// SeasonalityComponent summarises one fitted Fourier seasonality.
type SeasonalityComponent struct {
	Period       float64   `json:"period"`
	FourierOrder int       `json:"fourier_order"`
	Coefficients []float64 `json:"coefficients"`
	Amplitude    float64   `json:"amplitude"`
}

// ModelResult is the output shape shared by every model, the ensemble and the fallbacks.
type ModelResult struct {
	ModelType          string                          `json:"model_type"`
	Order              []int                           `json:"model_order,omitempty"`
	Forecast           []float64                       `json:"forecast"`
	ConfidenceInterval Interval                        `json:"confidence_interval"`
	FutureDates        []string                        `json:"future_dates"`
	Metrics            Metrics                         `json:"metrics"`
	Trend              Trend                           `json:"trend"`
	IntegrationOrder   *int                            `json:"integration_order,omitempty"`
	Seasonality        map[string]SeasonalityComponent `json:"seasonality,omitempty"`
	FeatureImportance  map[string]float64              `json:"feature_importance,omitempty"`
}

// Horizon is the number of forecast days carried by the result.
func (r ModelResult) Horizon() int {
	return len(r.Forecast)
}

// IsFallback reports whether the result came from a fallback tier.
func (r ModelResult) IsFallback() bool {
	return strings.HasSuffix(r.ModelType, fallbackSuffix)
}

// EnsembleResult is a blended ModelResult plus the weights and members that produced it.
type EnsembleResult struct {
	ModelResult
	ModelWeights     map[string]float64     `json:"model_weights,omitempty"`
	IndividualModels map[string]ModelResult `json:"individual_models,omitempty"`
}

// Request describes a forecast call.
type Request struct {
	HorizonDays int
	Scenario    string
	Models      []ModelKind
}

// Report is what Forecast hands back to callers. For single-model requests the ensemble
// maps are empty and the payload is exactly a ModelResult.
type Report struct {
	Scenario    string   `json:"scenario,omitempty"`
	HorizonDays int      `json:"horizon_days"`
	Models      []string `json:"models"`
	EnsembleResult
}

func futureDates(last time.Time, horizon int) []string {
	dates := make([]string, horizon)
	for i := range dates {
		dates[i] = last.AddDate(0, 0, i+1).Format(DateLayout)
	}
	return dates
}

// trendBetween compares the final forecast point with the last observed value.
func trendBetween(last, final float64) Trend {
	tolerance := 1e-9 * math.Max(1, math.Abs(last))
	switch {
	case final-last > tolerance:
		return TrendIncreasing
	case last-final > tolerance:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// percentBand builds a symmetric band of frac*|value| around every point.
func percentBand(values []float64, frac float64) Interval {
	band := Interval{
		Lower: make([]float64, len(values)),
		Upper: make([]float64, len(values)),
	}
	for i, v := range values {
		width := math.Abs(v) * frac
		band.Lower[i] = v - width
		band.Upper[i] = v + width
	}
	return band
}
