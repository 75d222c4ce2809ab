package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/cashflow-forecaster/internal/currency"
	"github.com/carson-networks/cashflow-forecaster/internal/forecast"
	"github.com/carson-networks/cashflow-forecaster/internal/forest"
	"github.com/carson-networks/cashflow-forecaster/internal/operator"
	"github.com/carson-networks/cashflow-forecaster/internal/storage"
	"github.com/carson-networks/cashflow-forecaster/internal/storage/cashflow"
)

var serviceNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*ForecastService, *cashflow.MockICashflowTable) {
	t.Helper()
	table := cashflow.NewMockICashflowTable(t)
	op := operator.NewOperatorDelegator(storage.NewStorageWithReader(&storage.Reader{Cashflow: table}), 2, 4)
	op.Start()
	t.Cleanup(op.Stop)

	conv, err := currency.NewConverter("SGD", nil)
	require.NoError(t, err)
	forecaster := forecast.New(forecast.Config{
		Regression: forecast.RegressionConfig{Forest: forest.Config{Trees: 10}},
		Now:        func() time.Time { return serviceNow },
	})

	svc := NewForecastService(op, forecaster, conv, 365)
	svc.now = func() time.Time { return serviceNow }
	return svc, table
}

// ledgerRows produces one sale in MYR and one expense in SGD per day.
func ledgerRows(days int) []*cashflow.Entry {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]*cashflow.Entry, 0, 2*days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		rows = append(rows,
			&cashflow.Entry{
				ID:            uuid.Must(uuid.NewV4()),
				PaymentDate:   date,
				PaymentAmount: decimal.NewFromInt(int64(330 + 33*(i%7))),
				Currency:      "MYR",
				Direction:     cashflow.DirectionIn,
				Category:      "sales",
			},
			&cashflow.Entry{
				ID:            uuid.Must(uuid.NewV4()),
				PaymentDate:   date,
				PaymentAmount: decimal.NewFromInt(60),
				Currency:      "SGD",
				Direction:     cashflow.DirectionOut,
				Category:      "supplies",
			},
		)
	}
	return rows
}

// -- Forecast tests --

func TestForecast_ShortHorizon(t *testing.T) {
	svc, table := newTestService(t)
	table.On("List", mock.Anything, mock.Anything).Return(ledgerRows(45), nil)

	result, err := svc.Forecast(context.Background(), ForecastRequest{HorizonDays: 14, Scenario: "base"})
	require.NoError(t, err)

	assert.Equal(t, 90, result.EntryCount)
	assert.Empty(t, result.UnknownCurrencies)
	assert.Equal(t, []string{"arima"}, result.Report.Models)
	assert.Equal(t, "base", result.Report.Scenario)
	assert.Len(t, result.Report.Forecast, 14)
	assert.Equal(t, "2024-02-15", result.Report.FutureDates[0])
	assert.Greater(t, result.Report.Forecast[0], 0.0)
}

func TestForecast_NamedModels(t *testing.T) {
	svc, table := newTestService(t)
	table.On("List", mock.Anything, mock.Anything).Return(ledgerRows(60), nil)

	result, err := svc.Forecast(context.Background(), ForecastRequest{
		HorizonDays: 10,
		Models:      []string{"prophet", "arima"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"seasonal", "arima"}, result.Report.Models)
	assert.Equal(t, "Ensemble", result.Report.ModelType)
	assert.Len(t, result.Report.ModelWeights, 2)
}

func TestForecast_LookbackOverride(t *testing.T) {
	svc, table := newTestService(t)
	wantSince := time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC)
	table.On("List", mock.Anything, mock.MatchedBy(func(f *cashflow.EntryFilter) bool {
		return f != nil && f.Since != nil && f.Since.Equal(wantSince)
	})).Return(nil, nil)

	result, err := svc.Forecast(context.Background(), ForecastRequest{HorizonDays: 3, LookbackDays: 7})
	require.NoError(t, err)

	assert.Zero(t, result.EntryCount)
	assert.Equal(t, forecast.UltimateFallbackLabel, result.Report.ModelType)
}

func TestForecast_UnknownModel(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Forecast(context.Background(), ForecastRequest{Models: []string{"lstm"}})

	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestForecast_StorageError(t *testing.T) {
	svc, table := newTestService(t)
	table.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := svc.Forecast(context.Background(), ForecastRequest{})

	assert.EqualError(t, err, "connection refused")
}

func TestRecommendations(t *testing.T) {
	svc, _ := newTestService(t)

	recs := svc.Recommendations()

	assert.Len(t, recs, 6)
	assert.Equal(t, "ARIMA", recs[0].Label)
}
