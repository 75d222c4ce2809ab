package service

import (
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/cashflow-forecaster/internal/config"
	"github.com/carson-networks/cashflow-forecaster/internal/currency"
	"github.com/carson-networks/cashflow-forecaster/internal/forecast"
	"github.com/carson-networks/cashflow-forecaster/internal/forest"
	"github.com/carson-networks/cashflow-forecaster/internal/operator"
)

// Service holds all business logic services.
type Service struct {
	Forecast *ForecastService
}

// NewService creates a new Service that runs forecasts on the delegator's workers.
func NewService(op *operator.OperatorDelegator, forecaster *forecast.Forecaster, conv *currency.Converter, lookbackDays int) *Service {
	return &Service{
		Forecast: NewForecastService(op, forecaster, conv, lookbackDays),
	}
}

// ForecastConfig maps service configuration onto the forecaster.
func ForecastConfig(env *config.Config, logger *logrus.Logger) forecast.Config {
	w := env.Forecast.Weights
	return forecast.Config{
		Weights: forecast.Weights{
			ARIMA:        w.ARIMA,
			Seasonal:     w.Seasonal,
			RandomForest: w.RandomForest,
		},
		Regression: forecast.RegressionConfig{
			Forest: forest.Config{Seed: env.Forecast.Seed},
		},
		Verbose: env.Forecast.Verbose,
		Logger:  logger,
	}
}
