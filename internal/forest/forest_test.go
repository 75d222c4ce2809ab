package forest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepData has a target driven only by the first feature; the second is noise-free filler.
func stepData(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		a := float64(i % 10)
		b := float64((i * 7) % 3)
		x[i] = []float64{a, b}
		if a >= 5 {
			y[i] = 100
		} else {
			y[i] = -100
		}
	}
	return x, y
}

// -- Config tests --

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()

	assert.Equal(t, 100, cfg.Trees)
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, 5, cfg.MinSamplesSplit)
	assert.Equal(t, 2, cfg.MinSamplesLeaf)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Positive(t, cfg.Workers)
}

// -- Forest tests --

func TestForest_LearnsStep(t *testing.T) {
	x, y := stepData(200)
	f := New(Config{Trees: 25})

	require.NoError(t, f.Train(x, y))

	hi, err := f.Predict([]float64{8, 1})
	require.NoError(t, err)
	lo, err := f.Predict([]float64{2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 100, hi, 1e-9)
	assert.InDelta(t, -100, lo, 1e-9)

	imp := f.FeatureImportances()
	require.Len(t, imp, 2)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-12)
	assert.Greater(t, imp[0], 0.99)
}

func TestForest_DeterministicAcrossWorkerCounts(t *testing.T) {
	x := make([][]float64, 120)
	y := make([]float64, 120)
	for i := range x {
		v := float64(i)
		x[i] = []float64{v, math.Sin(v / 5), float64(i % 7)}
		y[i] = 3*v + 40*math.Sin(v/5) + float64(i%7)
	}

	serial := New(Config{Trees: 30, Seed: 9, Workers: 1})
	parallel := New(Config{Trees: 30, Seed: 9, Workers: 8})
	require.NoError(t, serial.Train(x, y))
	require.NoError(t, parallel.Train(x, y))

	for _, row := range [][]float64{{10, 0.5, 3}, {95, -0.2, 1}, {130, 0.9, 6}} {
		a, err := serial.Predict(row)
		require.NoError(t, err)
		b, err := parallel.Predict(row)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
	assert.Equal(t, serial.FeatureImportances(), parallel.FeatureImportances())
}

func TestForest_SeedChangesBootstrap(t *testing.T) {
	x := make([][]float64, 60)
	y := make([]float64, 60)
	for i := range x {
		x[i] = []float64{float64(i)}
		y[i] = float64(i * i)
	}

	a := New(Config{Trees: 5, Seed: 1})
	b := New(Config{Trees: 5, Seed: 2})
	require.NoError(t, a.Train(x, y))
	require.NoError(t, b.Train(x, y))

	pa, _ := a.Predict([]float64{30.5})
	pb, _ := b.Predict([]float64{30.5})
	assert.NotEqual(t, pa, pb)
}

func TestForest_ConstantTargetHasUniformImportance(t *testing.T) {
	x := [][]float64{{1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}}
	y := []float64{7, 7, 7, 7, 7, 7}
	f := New(Config{Trees: 3})

	require.NoError(t, f.Train(x, y))

	assert.Equal(t, []float64{0.5, 0.5}, f.FeatureImportances())
	p, err := f.Predict([]float64{9, 9})
	require.NoError(t, err)
	assert.Equal(t, 7.0, p)
}

func TestForest_Errors(t *testing.T) {
	f := New(Config{})

	_, err := f.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotTrained)
	assert.ErrorIs(t, f.Train(nil, nil), ErrNoSamples)
	assert.Error(t, f.Train([][]float64{{1}, {2}}, []float64{1}))
	assert.Error(t, f.Train([][]float64{{1}, {2, 3}}, []float64{1, 2}))

	require.NoError(t, f.Train([][]float64{{1}, {2}, {3}}, []float64{1, 2, 3}))
	_, err = f.Predict([]float64{1, 2})
	assert.Error(t, err)
}

// -- StandardScaler tests --

func TestStandardScaler(t *testing.T) {
	x := [][]float64{{1, 5}, {3, 5}, {5, 5}}

	s := FitScaler(x)
	got := s.TransformAll(x)

	assert.Equal(t, []float64{3, 5}, s.Mean)
	assert.InDelta(t, math.Sqrt(8.0/3), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1])
	assert.InDelta(t, -1.224744871, got[0][0], 1e-9)
	assert.Equal(t, 0.0, got[1][1])
	assert.Equal(t, []float64{1, 5}, x[0], "input must not be modified")
}
