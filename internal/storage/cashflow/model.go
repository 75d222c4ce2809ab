package cashflow

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

const TableName = "cashflow"

// Entry is one ledger row as written by the bookkeeping side.
type Entry struct {
	ID            uuid.UUID       `db:"id"`
	PaymentDate   time.Time       `db:"payment_date"`
	PaymentAmount decimal.Decimal `db:"payment_amount"`
	Currency      string          `db:"currency"`
	Direction     Direction       `db:"direction"`
	Category      string          `db:"category"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Direction is the IN/OUT column. Anything else is treated as unsigned.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// EntryFilter bounds a ledger read by payment date, both ends inclusive.
type EntryFilter struct {
	Since *time.Time
	Until *time.Time
}

// ICashflowTable defines the read side of the ledger.
//
//go:generate mockery --name ICashflowTable --inpackage --filename mock_ICashflowTable.go
type ICashflowTable interface {
	List(ctx context.Context, filter *EntryFilter) ([]*Entry, error)
}
