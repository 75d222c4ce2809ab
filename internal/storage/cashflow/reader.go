package cashflow

import (
	"context"
	"fmt"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

var _ ICashflowTable = (*Reader)(nil)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

// List returns ledger entries in payment date order. Nil filter returns everything.
func (r *Reader) List(ctx context.Context, filter *EntryFilter) ([]*Entry, error) {
	rows, err := bob.All(ctx, r.exec, listQuery(filter), scan.StructMapper[*Entry]())
	if err != nil {
		return nil, fmt.Errorf("cashflow: list: %w", err)
	}
	return rows, nil
}

func listQuery(filter *EntryFilter) bob.BaseQuery[*dialect.SelectQuery] {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns("id", "payment_date", "payment_amount", "currency", "direction", "category", "created_at"),
		sm.From(TableName),
	}
	if filter != nil {
		if filter.Since != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote("payment_date").GTE(psql.Arg(*filter.Since))))
		}
		if filter.Until != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote("payment_date").LTE(psql.Arg(*filter.Until))))
		}
	}
	queryMods = append(queryMods,
		sm.OrderBy(psql.Quote("payment_date")).Asc(),
		sm.OrderBy(psql.Quote("created_at")).Asc(),
	)
	return psql.Select(queryMods...)
}
