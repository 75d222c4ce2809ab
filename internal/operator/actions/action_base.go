package actions

import (
	"context"

	"github.com/carson-networks/cashflow-forecaster/internal/storage"
)

type IAction interface {
	Perform(ctx context.Context, reader *storage.Reader) error
}
