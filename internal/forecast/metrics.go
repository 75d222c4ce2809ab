package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

func meanAbsoluteError(y, yhat []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for i := range y {
		sum += math.Abs(y[i] - yhat[i])
	}
	return sum / float64(len(y))
}

func rootMeanSquaredError(y, yhat []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for i := range y {
		d := y[i] - yhat[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(y)))
}

// r2Score is the coefficient of determination. A constant target scores 1 when predicted
// exactly and 0 otherwise.
func r2Score(y, yhat []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	mean := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i := range y {
		ssRes += (y[i] - yhat[i]) * (y[i] - yhat[i])
		ssTot += (y[i] - mean) * (y[i] - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func fitMetrics(y, yhat []float64) Metrics {
	return Metrics{
		MAE:  meanAbsoluteError(y, yhat),
		RMSE: rootMeanSquaredError(y, yhat),
		R2:   r2Score(y, yhat),
	}
}
