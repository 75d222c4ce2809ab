package actions

import (
	"context"
	"sort"
	"time"

	"github.com/carson-networks/cashflow-forecaster/internal/currency"
	"github.com/carson-networks/cashflow-forecaster/internal/forecast"
	"github.com/carson-networks/cashflow-forecaster/internal/storage"
	"github.com/carson-networks/cashflow-forecaster/internal/storage/cashflow"
)

// RunForecast reads the ledger window ending at Now, converts it to the base currency and
// forecasts it. Report, EntryCount and UnknownCurrencies are set once Perform returns nil.
type RunForecast struct {
	Forecaster   *forecast.Forecaster
	Converter    *currency.Converter
	Request      forecast.Request
	LookbackDays int
	Now          time.Time

	Report     forecast.Report
	EntryCount int
	// UnknownCurrencies lists codes with no rate; those amounts were taken 1:1.
	UnknownCurrencies []string

	IAction
}

func (r *RunForecast) Perform(ctx context.Context, reader *storage.Reader) error {
	var filter *cashflow.EntryFilter
	if r.LookbackDays > 0 {
		since := calendarDay(r.Now).AddDate(0, 0, -r.LookbackDays)
		filter = &cashflow.EntryFilter{Since: &since}
	}

	entries, err := reader.Cashflow.List(ctx, filter)
	if err != nil {
		return err
	}

	r.EntryCount = len(entries)
	r.UnknownCurrencies = UnknownCurrencies(entries, r.Converter)
	r.Report = r.Forecaster.Forecast(ToTransactions(entries, r.Converter), r.Request)
	return nil
}

// ToTransactions maps ledger rows onto forecaster input, amounts in the converter's base currency.
func ToTransactions(entries []*cashflow.Entry, conv *currency.Converter) []forecast.Transaction {
	txns := make([]forecast.Transaction, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		txns = append(txns, forecast.Transaction{
			Date:      e.PaymentDate,
			Amount:    conv.ToBase(e.PaymentAmount, e.Currency).InexactFloat64(),
			Direction: direction(e.Direction),
			Currency:  e.Currency,
			Category:  e.Category,
		})
	}
	return txns
}

// UnknownCurrencies returns the sorted distinct currency codes conv has no rate for.
func UnknownCurrencies(entries []*cashflow.Entry, conv *currency.Converter) []string {
	seen := map[string]bool{}
	var codes []string
	for _, e := range entries {
		if e == nil || seen[e.Currency] || conv.Known(e.Currency) {
			continue
		}
		seen[e.Currency] = true
		codes = append(codes, e.Currency)
	}
	sort.Strings(codes)
	return codes
}

func direction(d cashflow.Direction) forecast.Direction {
	switch d {
	case cashflow.DirectionIn:
		return forecast.DirectionIn
	case cashflow.DirectionOut:
		return forecast.DirectionOut
	default:
		return forecast.DirectionUnspecified
	}
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
