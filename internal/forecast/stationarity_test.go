package forecast

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whiteNoise(n int) []float64 {
	r := rand.New(rand.NewPCG(7, 11))
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = r.NormFloat64()
	}
	return xs
}

func cumsum(xs []float64) []float64 {
	out := make([]float64, len(xs))
	var acc float64
	for i, v := range xs {
		acc += v
		out[i] = acc
	}
	return out
}

// driftingWalk is a random walk whose steps average 10.
func driftingWalk(n int) []float64 {
	steps := whiteNoise(n)
	for i := range steps {
		steps[i] += 10
	}
	return cumsum(steps)
}

// -- ADFTest tests --

func TestADFTest_WhiteNoiseIsStationary(t *testing.T) {
	res, err := ADFTest(whiteNoise(200))

	require.NoError(t, err)
	assert.Less(t, res.PValue, DefaultSignificanceLevel)
	assert.Less(t, res.Statistic, -2.86)
}

func TestADFTest_AcceleratingSeriesIsNotStationary(t *testing.T) {
	res, err := ADFTest(cumsum(driftingWalk(120)))

	require.NoError(t, err)
	assert.Greater(t, res.PValue, DefaultSignificanceLevel)
}

func TestADFTest_ConstantSeries(t *testing.T) {
	res, err := ADFTest([]float64{5, 5, 5, 5, 5, 5})

	require.NoError(t, err)
	assert.Equal(t, 0.0, res.PValue)
}

func TestADFTest_TooShort(t *testing.T) {
	_, err := ADFTest([]float64{1, 2, 3})

	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMackinnonPValue(t *testing.T) {
	assert.InDelta(t, 0.05, mackinnonPValue(-2.86), 0.005)
	assert.Less(t, mackinnonPValue(-4), mackinnonPValue(-2))
	assert.Less(t, mackinnonPValue(-2), mackinnonPValue(0))
	assert.Equal(t, 1.0, mackinnonPValue(3))
	assert.Equal(t, 0.0, mackinnonPValue(-20))
}

// -- MakeStationary tests --

func TestMakeStationary_StationaryInputUntouched(t *testing.T) {
	xs := whiteNoise(150)

	st, err := MakeStationary(xs, DefaultSignificanceLevel)

	require.NoError(t, err)
	assert.Equal(t, 0, st.Order)
	assert.Equal(t, xs, st.Series)
}

func TestMakeStationary_DifferencesDriftingWalk(t *testing.T) {
	xs := driftingWalk(150)

	st, err := MakeStationary(xs, DefaultSignificanceLevel)

	require.NoError(t, err)
	assert.Equal(t, 1, st.Order)
	assert.Len(t, st.Series, len(xs)-1)
	assert.Less(t, st.PValue, DefaultSignificanceLevel)
}

func TestMakeStationary_CapsDifferencing(t *testing.T) {
	xs := cumsum(cumsum(cumsum(driftingWalk(120))))

	st, err := MakeStationary(xs, DefaultSignificanceLevel)

	require.NoError(t, err)
	assert.Equal(t, MaxDifferencing, st.Order)
	assert.Len(t, st.Series, len(xs)-MaxDifferencing)
}

func TestIsStationary_PropagatesShortInput(t *testing.T) {
	ok, p, err := IsStationary([]float64{1, 2}, DefaultSignificanceLevel)

	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1.0, p)
}
