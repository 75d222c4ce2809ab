package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carson-networks/cashflow-forecaster/internal/currency"
	"github.com/carson-networks/cashflow-forecaster/internal/forecast"
	"github.com/carson-networks/cashflow-forecaster/internal/operator/actions"
)

var ErrUnknownModel = errors.New("unknown model")

type processor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// ForecastService handles forecast business logic.
type ForecastService struct {
	operator     processor
	forecaster   *forecast.Forecaster
	converter    *currency.Converter
	lookbackDays int
	now          func() time.Time
}

// NewForecastService creates a new ForecastService.
func NewForecastService(op processor, forecaster *forecast.Forecaster, conv *currency.Converter, lookbackDays int) *ForecastService {
	return &ForecastService{
		operator:     op,
		forecaster:   forecaster,
		converter:    conv,
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

// Forecast reads the ledger and forecasts it on an operator worker.
func (s *ForecastService) Forecast(ctx context.Context, req ForecastRequest) (*ForecastResult, error) {
	models, err := parseModels(req.Models)
	if err != nil {
		return nil, err
	}

	lookback := s.lookbackDays
	if req.LookbackDays > 0 {
		lookback = req.LookbackDays
	}

	action := &actions.RunForecast{
		Forecaster: s.forecaster,
		Converter:  s.converter,
		Request: forecast.Request{
			HorizonDays: req.HorizonDays,
			Scenario:    req.Scenario,
			Models:      models,
		},
		LookbackDays: lookback,
		Now:          s.now(),
	}

	if err := s.operator.Process(ctx, action); err != nil {
		return nil, err
	}

	return &ForecastResult{
		Report:            action.Report,
		EntryCount:        action.EntryCount,
		UnknownCurrencies: action.UnknownCurrencies,
	}, nil
}

// Recommendations lists which model suits which planning scenario.
func (s *ForecastService) Recommendations() []forecast.Recommendation {
	return forecast.ModelRecommendations()
}

func parseModels(names []string) ([]forecast.ModelKind, error) {
	if len(names) == 0 {
		return nil, nil
	}
	models := make([]forecast.ModelKind, 0, len(names))
	for _, name := range names {
		kind, ok := forecast.ParseModelKind(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
		}
		models = append(models, kind)
	}
	return models, nil
}
