package cashflow

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockICashflowTable is a testify mock of ICashflowTable.
type MockICashflowTable struct {
	mock.Mock
}

// NewMockICashflowTable registers a cleanup that asserts every expectation was met.
func NewMockICashflowTable(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockICashflowTable {
	m := &MockICashflowTable{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockICashflowTable) List(ctx context.Context, filter *EntryFilter) ([]*Entry, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]*Entry)
	return rows, args.Error(1)
}
