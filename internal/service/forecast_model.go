package service

import (
	"github.com/carson-networks/cashflow-forecaster/internal/forecast"
)

// ForecastRequest is a forecast call in the service layer. Zero values pick the defaults.
type ForecastRequest struct {
	HorizonDays  int
	Scenario     string
	Models       []string
	LookbackDays int
}

// ForecastResult is the report plus how much ledger history fed it.
type ForecastResult struct {
	Report            forecast.Report
	EntryCount        int
	UnknownCurrencies []string
}
