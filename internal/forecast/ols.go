package forecast

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errSingularDesign = errors.New("singular design matrix")

type olsFit struct {
	Beta      []float64
	StdErr    []float64
	Residuals []float64
	SSE       float64
	N         int
	K         int
}

// aic uses the Gaussian log-likelihood at the MLE variance.
func (f olsFit) aic() float64 {
	n := float64(f.N)
	sigma2 := math.Max(f.SSE/n, 1e-300)
	loglik := -n / 2 * (math.Log(2*math.Pi*sigma2) + 1)
	return 2*float64(f.K) - 2*loglik
}

// leastSquares regresses y on the columns of rows. penalty, when non-nil, adds a ridge term
// penalty[j]*beta[j]^2 per coefficient.
//
// Columns are scaled to unit max-abs and the system is solved by QR, with the ridge terms as
// extra rows, so raw cumulative levels next to an intercept stay well conditioned.
func leastSquares(rows [][]float64, y []float64, penalty []float64) (olsFit, error) {
	n := len(rows)
	if n == 0 || n != len(y) {
		return olsFit{}, errSingularDesign
	}
	k := len(rows[0])
	if penalty == nil && n <= k {
		return olsFit{}, errSingularDesign
	}

	scale := make([]float64, k)
	for j := range scale {
		for _, row := range rows {
			scale[j] = math.Max(scale[j], math.Abs(row[j]))
		}
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	var ridge []int
	for j := 0; j < k && j < len(penalty); j++ {
		if penalty[j] > 0 {
			ridge = append(ridge, j)
		}
	}
	m := n + len(ridge)
	if m < k {
		return olsFit{}, errSingularDesign
	}

	x := mat.NewDense(m, k, nil)
	for i, row := range rows {
		for j, v := range row {
			x.Set(i, j, v/scale[j])
		}
	}
	for r, j := range ridge {
		x.Set(n+r, j, math.Sqrt(penalty[j])/scale[j])
	}
	yv := mat.NewVecDense(m, nil)
	for i, v := range y {
		yv.SetVec(i, v)
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yv); err != nil {
		return olsFit{}, errSingularDesign
	}

	// (XᵀX)⁻¹ = R⁻¹R⁻ᵀ, so its diagonal is the squared row norms of R⁻¹.
	var r mat.Dense
	qr.RTo(&r)
	upper := mat.NewTriDense(k, mat.Upper, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			upper.SetTri(i, j, r.At(i, j))
		}
	}
	var rinv mat.TriDense
	if err := rinv.InverseTri(upper); err != nil {
		return olsFit{}, errSingularDesign
	}

	fit := olsFit{
		Beta:      make([]float64, k),
		StdErr:    make([]float64, k),
		Residuals: make([]float64, n),
		N:         n,
		K:         k,
	}
	for j := 0; j < k; j++ {
		fit.Beta[j] = beta.AtVec(j) / scale[j]
		if math.IsNaN(fit.Beta[j]) || math.IsInf(fit.Beta[j], 0) {
			return olsFit{}, errSingularDesign
		}
	}
	for i, row := range rows {
		var fitted float64
		for j, v := range row {
			fitted += v * fit.Beta[j]
		}
		res := y[i] - fitted
		fit.Residuals[i] = res
		fit.SSE += res * res
	}

	dof := float64(n - k)
	if dof < 1 {
		dof = 1
	}
	sigma2 := fit.SSE / dof
	for j := 0; j < k; j++ {
		var v float64
		for c := j; c < k; c++ {
			v += rinv.At(j, c) * rinv.At(j, c)
		}
		fit.StdErr[j] = math.Sqrt(sigma2*v) / scale[j]
	}
	return fit, nil
}
