package forecast

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	arimaMaxP = 2
	arimaMaxD = 1
	arimaMaxQ = 2

	arimaConfidence  = 0.95
	arimaMaxEvals    = 4000
	arimaPenalty     = 1e12
	arimaSigma2Floor = 1e-10
	arimaSimplexSize = 0.1
)

// arimaOrder is the (p, d, q) triple of an ARIMA model.
type arimaOrder struct {
	p, d, q int
}

func (o arimaOrder) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.p, o.d, o.q)
}

// params counts estimated coefficients plus the innovation variance.
func (o arimaOrder) params() int {
	k := o.p + o.q + 1
	if o.d == 0 {
		k++
	}
	return k
}

// arimaFit is a fitted ARIMA model. Coefficients are in the units of the differenced series.
type arimaFit struct {
	order  arimaOrder
	levels []float64
	w      []float64
	mu     float64
	phi    []float64
	theta  []float64
	resid  []float64
	sigma2 float64
	aic    float64
}

// FitARIMA grid-searches ARIMA orders on the cumulative series, keeps the lowest-AIC fit and
// forecasts horizon days ahead with a 95% interval. If no order in the grid fits, the fixed
// order (1,1,1) is tried before giving up.
func FitARIMA(series DailySeries, horizon int, cfg Config) Outcome {
	cfg = cfg.withDefaults()
	horizon = clampHorizon(horizon)
	diag := diagnostics{log: cfg.Logger, verbose: cfg.Verbose}

	if series.Len() < 2 {
		return failed(ModelARIMA, insufficient(ModelARIMA, "need at least 2 days, got %d", series.Len()))
	}
	levels := series.Cumulative()

	var best *arimaFit
	for p := 0; p <= arimaMaxP; p++ {
		for d := 0; d <= arimaMaxD; d++ {
			for q := 0; q <= arimaMaxQ; q++ {
				order := arimaOrder{p: p, d: d, q: q}
				fit, err := fitARIMAOrder(levels, order, false)
				if err != nil {
					diag.fitFailed(ModelARIMA, logrus.Fields{"order": order.String()}, err)
					continue
				}
				if best == nil || fit.aic < best.aic {
					best = &fit
				}
			}
		}
	}

	if best == nil {
		order := arimaOrder{p: 1, d: 1, q: 1}
		fit, err := fitARIMAOrder(levels, order, true)
		if err != nil {
			return Outcome{Model: ModelARIMA, Err: &ForecastError{
				Kind:  KindModelFailure,
				Model: ModelARIMA,
				Err:   fmt.Errorf("grid and fixed order %s failed: %w", order, err),
			}}
		}
		best = &fit
	}

	forecast := best.forecast(horizon)
	band := best.interval(forecast)

	last := series.Last()
	aic := best.aic
	result := ModelResult{
		ModelType:          ModelARIMA.Label(),
		Order:              []int{best.order.p, best.order.d, best.order.q},
		Forecast:           forecast,
		ConfidenceInterval: band,
		FutureDates:        futureDates(last.Date, horizon),
		Metrics:            best.inSampleMetrics(),
		Trend:              trendBetween(last.Cumulative, forecast[len(forecast)-1]),
	}
	result.Metrics.AIC = &aic

	if st, err := MakeStationary(levels, cfg.SignificanceLevel); err == nil {
		order := st.Order
		result.IntegrationOrder = &order
	} else {
		diag.fitFailed(ModelARIMA, logrus.Fields{"step": "stationarity"}, err)
	}

	return success(ModelARIMA, result)
}

func convergence(order arimaOrder, format string, args ...any) error {
	return &ForecastError{
		Kind:  KindConvergence,
		Model: ModelARIMA,
		Err:   fmt.Errorf("%w: order %s: %s", ErrNotConverged, order, fmt.Sprintf(format, args...)),
	}
}

// fitARIMAOrder estimates one order by conditional sum of squares. The optimiser works on the
// differenced series scaled to unit RMS so one simplex size suits every ledger. A relaxed fit
// accepts a single usable observation and keeps the starting parameters when the optimiser
// finds nothing better.
func fitARIMAOrder(levels []float64, order arimaOrder, relaxed bool) (arimaFit, error) {
	w := levels
	for i := 0; i < order.d; i++ {
		w = difference(w)
	}
	nEff := len(w) - order.p
	minObs := order.params() + 2
	if relaxed {
		minObs = 1
	}
	if nEff < minObs {
		return arimaFit{}, convergence(order, "%d usable observations for %d parameters", nEff, order.params())
	}

	scale := math.Sqrt(stat.Mean(squares(w), nil))
	if scale == 0 {
		scale = 1
	}
	z := make([]float64, len(w))
	for i, v := range w {
		z[i] = v / scale
	}

	withMean := order.d == 0
	unpack := func(x []float64) (float64, []float64, []float64) {
		var mu float64
		if withMean {
			mu, x = x[0], x[1:]
		}
		return mu, x[:order.p], x[order.p:]
	}

	dim := order.p + order.q
	if withMean {
		dim++
	}

	x := make([]float64, dim)
	if withMean {
		x[0] = stat.Mean(z, nil)
	}

	if order.p+order.q > 0 {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				mu, phi, theta := unpack(x)
				if !causal(phi) || !causal(negated(theta)) {
					return arimaPenalty
				}
				_, sse := cssResiduals(z, mu, phi, theta)
				if math.IsNaN(sse) || math.IsInf(sse, 0) {
					return arimaPenalty
				}
				return sse
			},
		}
		result, err := optimize.Minimize(problem, x, &optimize.Settings{FuncEvaluations: arimaMaxEvals},
			&optimize.NelderMead{SimplexSize: arimaSimplexSize})
		switch {
		case result != nil && result.F < arimaPenalty:
			x = result.X
		case relaxed:
		case result == nil:
			return arimaFit{}, convergence(order, "optimizer: %v", err)
		default:
			return arimaFit{}, convergence(order, "no admissible parameters found")
		}
	}

	muZ, phi, theta := unpack(x)
	if !causal(phi) || !causal(negated(theta)) {
		return arimaFit{}, convergence(order, "parameters outside the stationary region")
	}

	fit := arimaFit{
		order:  order,
		levels: levels,
		w:      w,
		mu:     muZ * scale,
		phi:    append([]float64(nil), phi...),
		theta:  append([]float64(nil), theta...),
	}
	var sse float64
	fit.resid, sse = cssResiduals(w, fit.mu, fit.phi, fit.theta)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return arimaFit{}, convergence(order, "non-finite residuals")
	}

	n := float64(nEff)
	fit.sigma2 = math.Max(sse/n, arimaSigma2Floor)
	loglik := -n / 2 * (math.Log(2*math.Pi*fit.sigma2) + 1)
	fit.aic = 2*float64(order.params()) - 2*loglik
	if math.IsNaN(fit.aic) || math.IsInf(fit.aic, 0) {
		return arimaFit{}, convergence(order, "non-finite AIC")
	}
	return fit, nil
}

// cssResiduals runs the ARMA recursion over w. The first p residuals are conditioned to zero.
func cssResiduals(w []float64, mu float64, phi, theta []float64) ([]float64, float64) {
	p := len(phi)
	e := make([]float64, len(w))
	var sse float64
	for t := p; t < len(w); t++ {
		pred := mu
		for i, c := range phi {
			pred += c * (w[t-i-1] - mu)
		}
		for j, c := range theta {
			if t-j-1 >= p {
				pred += c * e[t-j-1]
			}
		}
		e[t] = w[t] - pred
		sse += e[t] * e[t]
	}
	return e, sse
}

// causal reports whether 1 - c1 B - c2 B^2 has its roots outside the unit circle.
// Only the orders searched here (up to two) are supported.
func causal(c []float64) bool {
	switch len(c) {
	case 0:
		return true
	case 1:
		return math.Abs(c[0]) < 1
	case 2:
		return c[0]+c[1] < 1 && c[1]-c[0] < 1 && math.Abs(c[1]) < 1
	default:
		return false
	}
}

func negated(c []float64) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = -v
	}
	return out
}

func squares(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = v * v
	}
	return out
}

// forecast returns horizon level forecasts, integrating the differenced forecast back up.
func (f arimaFit) forecast(horizon int) []float64 {
	n := len(f.w)
	ext := make([]float64, n+horizon)
	copy(ext, f.w)
	res := make([]float64, n+horizon)
	copy(res, f.resid)

	for t := n; t < n+horizon; t++ {
		pred := f.mu
		for i, c := range f.phi {
			if t-i-1 >= 0 {
				pred += c * (ext[t-i-1] - f.mu)
			}
		}
		for j, c := range f.theta {
			if t-j-1 >= 0 {
				pred += c * res[t-j-1]
			}
		}
		ext[t] = pred
	}

	out := ext[n:]
	for k := 0; k < f.order.d; k++ {
		out = integrate(out, f.lastAtDifference(k))
	}
	return out
}

// lastAtDifference is the final value of the levels differenced d-k-1 times, the anchor for
// undoing the k-th integration step counted from the innermost.
func (f arimaFit) lastAtDifference(k int) float64 {
	xs := f.levels
	for i := 0; i < f.order.d-k-1; i++ {
		xs = difference(xs)
	}
	return xs[len(xs)-1]
}

func integrate(diffs []float64, anchor float64) []float64 {
	out := make([]float64, len(diffs))
	acc := anchor
	for i, v := range diffs {
		acc += v
		out[i] = acc
	}
	return out
}

// interval builds the 95% band from the psi weights of phi(B)(1-B)^d.
func (f arimaFit) interval(forecast []float64) Interval {
	psi := psiWeights(f.phi, f.theta, f.order.d, len(forecast))
	z := distuv.UnitNormal.Quantile(1 - (1-arimaConfidence)/2)

	band := Interval{
		Lower: make([]float64, len(forecast)),
		Upper: make([]float64, len(forecast)),
	}
	var acc float64
	for h, v := range forecast {
		acc += psi[h] * psi[h]
		width := z * math.Sqrt(f.sigma2*acc)
		band.Lower[h] = v - width
		band.Upper[h] = v + width
	}
	return band
}

func psiWeights(phi, theta []float64, d, horizon int) []float64 {
	poly := make([]float64, len(phi)+1)
	poly[0] = 1
	for i, c := range phi {
		poly[i+1] = -c
	}
	for k := 0; k < d; k++ {
		next := make([]float64, len(poly)+1)
		for i, c := range poly {
			next[i] += c
			next[i+1] -= c
		}
		poly = next
	}

	psi := make([]float64, horizon)
	if horizon == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < horizon; j++ {
		var v float64
		if j <= len(theta) {
			v = theta[j-1]
		}
		for i := 1; i < len(poly) && i <= j; i++ {
			v -= poly[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// fittedLevels maps one-step-ahead residuals back to the level series. The first d points
// have no prediction and are returned as observed.
func (f arimaFit) fittedLevels() []float64 {
	fitted := make([]float64, len(f.levels))
	for t, y := range f.levels {
		fitted[t] = y
		if t >= f.order.d {
			fitted[t] = y - f.resid[t-f.order.d]
		}
	}
	return fitted
}

// inSampleMetrics scores the one-step-ahead fit, skipping the d+p warm-up points whose
// residuals are conditioned to zero.
func (f arimaFit) inSampleMetrics() Metrics {
	warmup := max(1, f.order.d+f.order.p)
	if warmup >= len(f.levels) {
		warmup = len(f.levels) - 1
	}
	fitted := f.fittedLevels()
	return fitMetrics(f.levels[warmup:], fitted[warmup:])
}
