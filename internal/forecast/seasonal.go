package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SeasonalityMode selects how seasonal terms combine with the trend.
type SeasonalityMode string

const (
	SeasonalityMultiplicative SeasonalityMode = "multiplicative"
	SeasonalityAdditive       SeasonalityMode = "additive"
)

// Seasonality is one Fourier-series cycle of the seasonal model.
type Seasonality struct {
	Name         string
	Period       float64
	FourierOrder int
}

// DefaultSeasonalities are the business cycles fitted by default. A cycle is only used when the
// history covers at least two of its periods.
func DefaultSeasonalities() []Seasonality {
	return []Seasonality{
		{Name: "weekly", Period: 7, FourierOrder: 3},
		{Name: "monthly", Period: 30.5, FourierOrder: 5},
		{Name: "quarterly", Period: 91.25, FourierOrder: 3},
		{Name: "yearly", Period: 365.25, FourierOrder: 10},
	}
}

// SeasonalConfig tunes the seasonal model.
type SeasonalConfig struct {
	Mode                  SeasonalityMode
	Seasonalities         []Seasonality
	MaxChangepoints       int
	ChangepointRange      float64
	ChangepointPriorScale float64
	SeasonalityPriorScale float64
	IntervalWidth         float64
	MinDays               int
}

func (c SeasonalConfig) withDefaults() SeasonalConfig {
	if c.Mode == "" {
		c.Mode = SeasonalityMultiplicative
	}
	if c.Seasonalities == nil {
		c.Seasonalities = DefaultSeasonalities()
	}
	if c.MaxChangepoints <= 0 {
		c.MaxChangepoints = 25
	}
	if c.ChangepointRange <= 0 || c.ChangepointRange > 1 {
		c.ChangepointRange = 0.8
	}
	if c.ChangepointPriorScale <= 0 {
		c.ChangepointPriorScale = 0.05
	}
	if c.SeasonalityPriorScale <= 0 {
		c.SeasonalityPriorScale = 10
	}
	if c.IntervalWidth <= 0 || c.IntervalWidth >= 1 {
		c.IntervalWidth = 0.8
	}
	if c.MinDays < 3 {
		c.MinDays = 3
	}
	return c
}

const (
	seasonalJitter     = 1e-8
	seasonalIterations = 50
	seasonalTolerance  = 1e-10
)

// seasonalDesign lays out the regressors: a piecewise-linear trend in scaled time t in [0, 1]
// over the history, and Fourier terms on absolute days so phases line up with the calendar.
type seasonalDesign struct {
	start         time.Time
	span          float64
	changepoints  []float64
	seasonalities []Seasonality
}

func newSeasonalDesign(series DailySeries, cfg SeasonalConfig) seasonalDesign {
	n := series.Len()
	design := seasonalDesign{
		start: series.Points[0].Date,
		span:  float64(n - 1),
	}

	hist := int(math.Floor(float64(n) * cfg.ChangepointRange))
	k := cfg.MaxChangepoints
	if limit := hist - 1; limit < k {
		k = limit
	}
	if limit := n / 4; limit < k {
		k = limit
	}
	for j := 1; j <= k; j++ {
		idx := math.Round(float64(j) * float64(hist-1) / float64(k))
		design.changepoints = append(design.changepoints, idx/design.span)
	}

	for _, s := range cfg.Seasonalities {
		if float64(n) >= 2*s.Period && s.FourierOrder > 0 {
			design.seasonalities = append(design.seasonalities, s)
		}
	}
	return design
}

func (d seasonalDesign) scaledTime(day time.Time) float64 {
	return day.Sub(d.start).Hours() / 24 / d.span
}

func (d seasonalDesign) trendRow(t float64) []float64 {
	row := make([]float64, 0, 2+len(d.changepoints))
	row = append(row, 1, t)
	for _, cp := range d.changepoints {
		row = append(row, math.Max(t-cp, 0))
	}
	return row
}

func fourierTerms(day time.Time, s Seasonality) []float64 {
	x := float64(day.Unix()) / 86400
	row := make([]float64, 0, 2*s.FourierOrder)
	for k := 1; k <= s.FourierOrder; k++ {
		arg := 2 * math.Pi * float64(k) * x / s.Period
		row = append(row, math.Sin(arg), math.Cos(arg))
	}
	return row
}

func (d seasonalDesign) seasonRow(day time.Time) []float64 {
	var row []float64
	for _, s := range d.seasonalities {
		row = append(row, fourierTerms(day, s)...)
	}
	return row
}

type seasonalFit struct {
	design     seasonalDesign
	mode       SeasonalityMode
	scale      float64
	trendBeta  []float64
	seasonBeta []float64
	residSD    float64
}

// components returns trend and seasonal values in scaled units.
func (f seasonalFit) components(day time.Time) (float64, float64) {
	g := floats.Dot(f.design.trendRow(f.design.scaledTime(day)), f.trendBeta)
	var s float64
	if len(f.seasonBeta) > 0 {
		s = floats.Dot(f.design.seasonRow(day), f.seasonBeta)
	}
	return g, s
}

func (f seasonalFit) combine(g, s float64) float64 {
	if f.mode == SeasonalityAdditive {
		return g + s
	}
	return g * (1 + s)
}

// FitSeasonal fits a decomposable trend plus seasonality model to the cumulative series and
// forecasts horizon days past its end.
func FitSeasonal(series DailySeries, horizon int, cfg Config) Outcome {
	cfg = cfg.withDefaults()
	horizon = clampHorizon(horizon)
	sc := cfg.Seasonal

	if series.Len() < sc.MinDays {
		return failed(ModelSeasonal, insufficient(ModelSeasonal, "need at least %d days, got %d", sc.MinDays, series.Len()))
	}

	fit, err := fitSeasonal(series, sc)
	if err != nil {
		return failed(ModelSeasonal, err)
	}

	y := series.Cumulative()
	fitted := make([]float64, len(y))
	for i, p := range series.Points {
		g, s := fit.components(p.Date)
		fitted[i] = fit.combine(g, s) * fit.scale
	}

	last := series.Last()
	z := distuv.UnitNormal.Quantile(0.5 + sc.IntervalWidth/2)
	trendScale := fit.trendUncertainty(sc)

	forecast := make([]float64, horizon)
	band := Interval{Lower: make([]float64, horizon), Upper: make([]float64, horizon)}
	for h := 0; h < horizon; h++ {
		day := last.Date.AddDate(0, 0, h+1)
		g, s := fit.components(day)
		value := fit.combine(g, s)

		ahead := float64(h+1) / fit.design.span
		trendSD := trendScale * math.Sqrt(ahead) * ahead
		if fit.mode == SeasonalityMultiplicative {
			trendSD *= math.Abs(1 + s)
		}
		width := z * math.Hypot(fit.residSD, trendSD) * fit.scale

		forecast[h] = value * fit.scale
		band.Lower[h] = forecast[h] - width
		band.Upper[h] = forecast[h] + width
	}
	if err := checkFinite(forecast, band); err != nil {
		return failed(ModelSeasonal, err)
	}

	return success(ModelSeasonal, ModelResult{
		ModelType:          ModelSeasonal.Label(),
		Forecast:           forecast,
		ConfidenceInterval: band,
		FutureDates:        futureDates(last.Date, horizon),
		Metrics:            fitMetrics(y, fitted),
		Trend:              trendBetween(last.Cumulative, forecast[len(forecast)-1]),
		Seasonality:        fit.summary(series),
	})
}

func fitSeasonal(series DailySeries, sc SeasonalConfig) (seasonalFit, error) {
	design := newSeasonalDesign(series, sc)
	y := series.Cumulative()

	scale := floats.Max(absolute(y))
	if scale == 0 {
		scale = 1
	}
	ys := make([]float64, len(y))
	for i, v := range y {
		ys[i] = v / scale
	}

	trendRows := make([][]float64, len(ys))
	seasonRows := make([][]float64, len(ys))
	for i, p := range series.Points {
		trendRows[i] = design.trendRow(design.scaledTime(p.Date))
		seasonRows[i] = design.seasonRow(p.Date)
	}

	sigma2, err := baselineVariance(trendRows, ys)
	if err != nil {
		return seasonalFit{}, err
	}
	cpPenalty := sigma2/(sc.ChangepointPriorScale*sc.ChangepointPriorScale) + seasonalJitter
	seasonPenalty := sigma2/(sc.SeasonalityPriorScale*sc.SeasonalityPriorScale) + seasonalJitter

	trendPenalty := make([]float64, len(trendRows[0]))
	for j := range trendPenalty {
		trendPenalty[j] = seasonalJitter
		if j >= 2 {
			trendPenalty[j] = cpPenalty
		}
	}
	nSeason := len(seasonRows[0])
	seasonPen := make([]float64, nSeason)
	for j := range seasonPen {
		seasonPen[j] = seasonPenalty
	}

	fit := seasonalFit{design: design, mode: sc.Mode, scale: scale}
	switch {
	case nSeason == 0:
		ols, err := leastSquares(trendRows, ys, trendPenalty)
		if err != nil {
			return seasonalFit{}, fmt.Errorf("trend fit: %w", err)
		}
		fit.trendBeta = ols.Beta
	case sc.Mode == SeasonalityAdditive:
		rows := make([][]float64, len(ys))
		for i := range rows {
			rows[i] = append(append([]float64(nil), trendRows[i]...), seasonRows[i]...)
		}
		ols, err := leastSquares(rows, ys, append(trendPenalty, seasonPen...))
		if err != nil {
			return seasonalFit{}, fmt.Errorf("additive fit: %w", err)
		}
		fit.trendBeta = ols.Beta[:len(trendPenalty)]
		fit.seasonBeta = ols.Beta[len(trendPenalty):]
	default:
		if err := fit.alternate(trendRows, seasonRows, ys, trendPenalty, seasonPen); err != nil {
			return seasonalFit{}, err
		}
	}

	var sse float64
	for i, p := range series.Points {
		g, s := fit.components(p.Date)
		r := ys[i] - fit.combine(g, s)
		sse += r * r
	}
	fit.residSD = math.Sqrt(sse / math.Max(float64(len(ys)-1), 1))
	return fit, nil
}

// alternate fits y = g(t) * (1 + s(t)) by alternating least squares: g with s held fixed,
// then s with g held fixed, until the fitted values stop moving.
func (f *seasonalFit) alternate(trendRows, seasonRows [][]float64, ys, trendPenalty, seasonPenalty []float64) error {
	n := len(ys)
	season := make([]float64, n)
	trend := make([]float64, n)
	prev := make([]float64, n)

	for iter := 0; iter < seasonalIterations; iter++ {
		rows := make([][]float64, n)
		for i := range rows {
			rows[i] = make([]float64, len(trendRows[i]))
			floats.ScaleTo(rows[i], 1+season[i], trendRows[i])
		}
		tfit, err := leastSquares(rows, ys, trendPenalty)
		if err != nil {
			return fmt.Errorf("multiplicative trend step: %w", err)
		}
		f.trendBeta = tfit.Beta
		for i := range trend {
			trend[i] = floats.Dot(trendRows[i], f.trendBeta)
		}

		target := make([]float64, n)
		for i := range rows {
			rows[i] = make([]float64, len(seasonRows[i]))
			floats.ScaleTo(rows[i], trend[i], seasonRows[i])
			target[i] = ys[i] - trend[i]
		}
		sfit, err := leastSquares(rows, target, seasonPenalty)
		if err != nil {
			return fmt.Errorf("multiplicative seasonal step: %w", err)
		}
		f.seasonBeta = sfit.Beta

		var moved float64
		for i := range season {
			season[i] = floats.Dot(seasonRows[i], f.seasonBeta)
			value := trend[i] * (1 + season[i])
			moved = math.Max(moved, math.Abs(value-prev[i]))
			prev[i] = value
		}
		if iter > 0 && moved < seasonalTolerance {
			break
		}
	}
	return nil
}

// baselineVariance is the residual variance of a straight line through ys, the noise scale the
// priors are expressed against.
func baselineVariance(trendRows [][]float64, ys []float64) (float64, error) {
	rows := make([][]float64, len(ys))
	for i := range rows {
		rows[i] = trendRows[i][:2]
	}
	ols, err := leastSquares(rows, ys, []float64{seasonalJitter, seasonalJitter})
	if err != nil {
		return 0, fmt.Errorf("baseline fit: %w", err)
	}
	return ols.SSE / float64(len(ys)), nil
}

// trendUncertainty is the spread of future slope changes, estimated from the size of the
// fitted changepoint deltas and how often they occurred in the history.
func (f seasonalFit) trendUncertainty(sc SeasonalConfig) float64 {
	deltas := f.trendBeta[2:]
	if len(deltas) == 0 {
		return 0
	}
	meanAbs := stat.Mean(absolute(deltas), nil)
	rate := float64(len(deltas)) / sc.ChangepointRange
	return meanAbs * math.Sqrt(2*rate) / 2
}

// summary reports each fitted cycle with its peak-to-peak amplitude in currency units. For the
// multiplicative mode the relative swing is taken at the mean trend level.
func (f seasonalFit) summary(series DailySeries) map[string]SeasonalityComponent {
	if len(f.design.seasonalities) == 0 {
		return nil
	}

	level := 1.0
	if f.mode == SeasonalityMultiplicative {
		trend := make([]float64, series.Len())
		for i, p := range series.Points {
			trend[i], _ = f.components(p.Date)
		}
		level = stat.Mean(absolute(trend), nil)
	}

	out := make(map[string]SeasonalityComponent, len(f.design.seasonalities))
	offset := 0
	for _, s := range f.design.seasonalities {
		width := 2 * s.FourierOrder
		coefs := append([]float64(nil), f.seasonBeta[offset:offset+width]...)
		offset += width

		days := int(math.Ceil(s.Period))
		values := make([]float64, days)
		for i := range values {
			values[i] = floats.Dot(fourierTerms(f.design.start.AddDate(0, 0, i), s), coefs)
		}
		out[s.Name] = SeasonalityComponent{
			Period:       s.Period,
			FourierOrder: s.FourierOrder,
			Coefficients: coefs,
			Amplitude:    (floats.Max(values) - floats.Min(values)) * level * f.scale,
		}
	}
	return out
}

func absolute(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = math.Abs(v)
	}
	return out
}

func checkFinite(forecast []float64, band Interval) error {
	for i := range forecast {
		for _, v := range []float64{forecast[i], band.Lower[i], band.Upper[i]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value at step %d", ErrMalformedForecast, i)
			}
		}
	}
	return nil
}
