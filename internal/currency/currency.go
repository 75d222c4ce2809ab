// Package currency normalises ledger amounts into a single base currency.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Reference is the currency the rate table is quoted against.
const Reference = "SGD"

// DefaultRates are units of each currency per one SGD.
func DefaultRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"SGD": decimal.NewFromInt(1),
		"MYR": decimal.RequireFromString("3.3"),
		"THB": decimal.NewFromInt(24),
		"IDR": decimal.NewFromInt(12633),
		"PHP": decimal.NewFromInt(44),
	}
}

// Converter turns amounts in any known currency into the base currency, rounded to cents.
// Codes missing from the table convert at 1:1.
type Converter struct {
	base    string
	perUnit map[string]decimal.Decimal
}

// NewConverter builds a converter for base. overrides are extra or replacement rates, given
// as decimal strings of units per one SGD.
func NewConverter(base string, overrides map[string]string) (*Converter, error) {
	rates := DefaultRates()
	for code, raw := range overrides {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("currency: rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("currency: rate for %s must be > 0, got %s", code, raw)
		}
		rates[normalise(code)] = rate
	}

	base = normalise(base)
	if base == "" {
		base = Reference
	}
	if _, ok := rates[base]; !ok {
		return nil, fmt.Errorf("currency: no rate for base currency %s", base)
	}

	return &Converter{base: base, perUnit: rates}, nil
}

func (c *Converter) Base() string {
	return c.base
}

// Known reports whether code has an explicit rate.
func (c *Converter) Known(code string) bool {
	_, ok := c.perUnit[normalise(code)]
	return ok
}

// ToBase converts amount from code into the base currency.
func (c *Converter) ToBase(amount decimal.Decimal, code string) decimal.Decimal {
	code = normalise(code)
	if code == c.base {
		return amount.Round(2)
	}
	from, ok := c.perUnit[code]
	if !ok {
		return amount.Round(2)
	}
	return amount.Div(from).Mul(c.perUnit[c.base]).Round(2)
}

func normalise(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
