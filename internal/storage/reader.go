package storage

import (
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/cashflow-forecaster/internal/storage/cashflow"
)

type Reader struct {
	Cashflow cashflow.ICashflowTable
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{
		Cashflow: cashflow.NewReader(exec),
	}
}
