package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultSignificanceLevel is the ADF p-value below which a series counts as stationary.
	DefaultSignificanceLevel = 0.05
	// MaxDifferencing caps how many times MakeStationary differences a series.
	MaxDifferencing = 3
)

// MacKinnon (2010) response-surface coefficients for the constant-only ADF regression
// with a single integrated variable.
var (
	adfTauMax    = 2.74
	adfTauMin    = -18.83
	adfTauStar   = -1.61
	adfSmallPoly = []float64{2.1659, 1.4412, 0.038269}
	adfLargePoly = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// ADFResult is the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic float64
	PValue    float64
	UsedLag   int
	NObs      int
}

// Stationarized is a series after differencing and the number of differences applied.
type Stationarized struct {
	Series []float64
	Order  int
	PValue float64
}

func difference(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

// ADFTest runs an augmented Dickey-Fuller test with a constant, picking the lag length by AIC.
func ADFTest(xs []float64) (ADFResult, error) {
	n := len(xs)
	if n < 4 {
		return ADFResult{}, insufficient(ModelARIMA, "adf needs at least 4 observations, got %d", n)
	}
	if stat.Variance(xs, nil) == 0 {
		return ADFResult{Statistic: math.Inf(-1), PValue: 0, NObs: n - 1}, nil
	}

	maxLag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if limit := n/2 - 2; limit < maxLag {
		maxLag = limit
	}
	if maxLag < 0 {
		maxLag = 0
	}

	dx := difference(xs)
	bestLag, bestAIC := -1, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		fit, err := adfRegression(xs, dx, lag, maxLag)
		if err != nil {
			continue
		}
		if aic := fit.aic(); aic < bestAIC {
			bestLag, bestAIC = lag, aic
		}
	}
	if bestLag < 0 {
		return ADFResult{}, insufficient(ModelARIMA, "adf regression is singular for %d observations", n)
	}

	fit, err := adfRegression(xs, dx, bestLag, bestLag)
	if err != nil {
		return ADFResult{}, insufficient(ModelARIMA, "adf regression is singular for %d observations", n)
	}

	gamma, se := fit.Beta[1], fit.StdErr[1]
	var tstat float64
	switch {
	case se > 0:
		tstat = gamma / se
	case gamma < 0:
		tstat = math.Inf(-1)
	default:
		tstat = math.Inf(1)
	}

	return ADFResult{
		Statistic: tstat,
		PValue:    mackinnonPValue(tstat),
		UsedLag:   bestLag,
		NObs:      fit.N,
	}, nil
}

// adfRegression regresses dx[j] on {1, xs[j], dx[j-1..j-lag]} for j >= start.
func adfRegression(xs, dx []float64, lag, start int) (olsFit, error) {
	var rows [][]float64
	var y []float64
	for j := start; j < len(dx); j++ {
		row := make([]float64, 0, 2+lag)
		row = append(row, 1, xs[j])
		for i := 1; i <= lag; i++ {
			row = append(row, dx[j-i])
		}
		rows = append(rows, row)
		y = append(y, dx[j])
	}
	return leastSquares(rows, y, nil)
}

func mackinnonPValue(tstat float64) float64 {
	switch {
	case tstat > adfTauMax:
		return 1
	case tstat < adfTauMin:
		return 0
	}
	poly := adfLargePoly
	if tstat <= adfTauStar {
		poly = adfSmallPoly
	}
	var z, pow float64 = 0, 1
	for _, c := range poly {
		z += c * pow
		pow *= tstat
	}
	return distuv.UnitNormal.CDF(z)
}

// IsStationary reports whether the ADF p-value falls below the significance level.
func IsStationary(xs []float64, significance float64) (bool, float64, error) {
	res, err := ADFTest(xs)
	if err != nil {
		return false, 1, err
	}
	return res.PValue < significance, res.PValue, nil
}

// MakeStationary differences xs until the ADF test passes or MaxDifferencing passes were made.
func MakeStationary(xs []float64, significance float64) (Stationarized, error) {
	current := append([]float64(nil), xs...)
	order := 0
	pvalue := 1.0
	for {
		stationary, p, err := IsStationary(current, significance)
		if err != nil {
			return Stationarized{}, err
		}
		pvalue = p
		if stationary || order >= MaxDifferencing {
			break
		}
		current = difference(current)
		order++
	}
	return Stationarized{Series: current, Order: order, PValue: pvalue}, nil
}
