package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// -- Converter tests --

func TestConverter_ToSGD(t *testing.T) {
	c, err := NewConverter("SGD", nil)
	require.NoError(t, err)

	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"100", "SGD", "100"},
		{"330", "MYR", "100"},
		{"100", "myr", "30.3"},
		{"2400", "THB", "100"},
		{"1263300", "IDR", "100"},
		{"-440", "PHP", "-10"},
		{"12.345", "SGD", "12.35"},
		{"50", "EUR", "50"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"_"+tt.amount, func(t *testing.T) {
			got := c.ToBase(dec(tt.amount), tt.code)
			assert.True(t, dec(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestConverter_CrossRateToOtherBase(t *testing.T) {
	c, err := NewConverter("myr", nil)
	require.NoError(t, err)

	assert.Equal(t, "MYR", c.Base())
	assert.True(t, dec("33").Equal(c.ToBase(dec("10"), "SGD")))
	assert.True(t, dec("13.75").Equal(c.ToBase(dec("100"), "THB")))
}

func TestConverter_Overrides(t *testing.T) {
	c, err := NewConverter("", map[string]string{"usd": "1.35", "MYR": "3.5"})
	require.NoError(t, err)

	assert.Equal(t, Reference, c.Base())
	assert.True(t, c.Known("USD"))
	assert.True(t, dec("100").Equal(c.ToBase(dec("135"), "USD")))
	assert.True(t, dec("100").Equal(c.ToBase(dec("350"), "MYR")))
	assert.False(t, c.Known("EUR"))
}

func TestNewConverter_Errors(t *testing.T) {
	_, err := NewConverter("SGD", map[string]string{"USD": "abc"})
	assert.Error(t, err)

	_, err = NewConverter("SGD", map[string]string{"USD": "0"})
	assert.Error(t, err)

	_, err = NewConverter("EUR", nil)
	assert.EqualError(t, err, "currency: no rate for base currency EUR")
}
