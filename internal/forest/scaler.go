package forest

import (
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each column on its mean and divides by its population standard
// deviation. Constant columns keep a scale of one.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler learns column means and scales from x.
func FitScaler(x [][]float64) StandardScaler {
	if len(x) == 0 {
		return StandardScaler{}
	}
	cols := len(x[0])
	s := StandardScaler{
		Mean:  make([]float64, cols),
		Scale: make([]float64, cols),
	}
	column := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i, row := range x {
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		s.Mean[j] = mean
		s.Scale[j] = std
		if std == 0 {
			s.Scale[j] = 1
		}
	}
	return s
}

// Transform returns a scaled copy of row.
func (s StandardScaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

// TransformAll scales every row of x.
func (s StandardScaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.Transform(row)
	}
	return out
}
