package cashflow

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Column names of the cashflow CSV export.
const (
	ColumnPaymentDate   = "payment_date"
	ColumnPaymentAmount = "payment_amount"
	ColumnCurrency      = "currency"
	ColumnDirection     = "direction"
	ColumnCategory      = "category"
)

// DateLayouts are tried in order when parsing payment_date. Day-first wins over month-first
// for ambiguous dates.
var DateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/06",
	"02/01/2006",
	"01/02/06",
	"01/02/2006",
}

var _ ICashflowTable = (*CSVTable)(nil)

// CSVTable serves an in-memory ledger loaded from a cashflow CSV export.
type CSVTable struct {
	entries []*Entry
	skipped int
}

// NewCSVTable reads every row of r. Rows with an unparseable date or amount are skipped
// and counted.
func NewCSVTable(r io.Reader) (*CSVTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &CSVTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cashflow: csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{ColumnPaymentDate, ColumnPaymentAmount} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("cashflow: csv is missing the %s column", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	table := &CSVTable{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cashflow: csv row: %w", err)
		}

		date, ok := ParseDate(field(record, ColumnPaymentDate))
		if !ok {
			table.skipped++
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(field(record, ColumnPaymentAmount), ",", ""))
		if err != nil {
			table.skipped++
			continue
		}

		table.entries = append(table.entries, &Entry{
			ID:            uuid.Must(uuid.NewV4()),
			PaymentDate:   date,
			PaymentAmount: amount,
			Currency:      strings.ToUpper(field(record, ColumnCurrency)),
			Direction:     Direction(strings.ToUpper(field(record, ColumnDirection))),
			Category:      field(record, ColumnCategory),
		})
	}

	return table, nil
}

// ParseDate tries each of DateLayouts.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Skipped is the number of rows dropped while loading.
func (c *CSVTable) Skipped() int {
	return c.skipped
}

func (c *CSVTable) List(_ context.Context, filter *EntryFilter) ([]*Entry, error) {
	rows := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if filter != nil && filter.Since != nil && e.PaymentDate.Before(*filter.Since) {
			continue
		}
		if filter != nil && filter.Until != nil && e.PaymentDate.After(*filter.Until) {
			continue
		}
		rows = append(rows, e)
	}
	return rows, nil
}

// Latest is the most recent payment date, or the zero time for an empty ledger.
func (c *CSVTable) Latest() time.Time {
	var latest time.Time
	for _, e := range c.entries {
		if e.PaymentDate.After(latest) {
			latest = e.PaymentDate
		}
	}
	return latest
}
