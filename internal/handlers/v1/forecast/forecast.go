package forecast

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	engine "github.com/carson-networks/cashflow-forecaster/internal/forecast"
	"github.com/carson-networks/cashflow-forecaster/internal/logging"
	"github.com/carson-networks/cashflow-forecaster/internal/service"
)

// ForecastBody is the request body for running a forecast.
type ForecastBody struct {
	HorizonDays  int      `json:"horizonDays,omitempty" minimum:"0" maximum:"3650" doc:"Days to forecast, 30 when omitted"`
	Scenario     string   `json:"scenario,omitempty" maxLength:"64" doc:"Scenario label echoed back in the report"`
	Models       []string `json:"models,omitempty" maxItems:"8" doc:"Models to run (arima, seasonal, random_forest, ensemble or their aliases), chosen by horizon when empty"`
	LookbackDays int      `json:"lookbackDays,omitempty" minimum:"0" doc:"Days of ledger history to read, the server default when omitted"`
}

// ForecastInput is the Huma input for running a forecast.
type ForecastInput struct {
	Body ForecastBody
}

// ForecastOutput is the Huma output for running a forecast.
type ForecastOutput struct {
	LedgerEntries int `header:"X-Ledger-Entries" doc:"Ledger rows the forecast was built from"`
	Body          engine.Report
}

// forecastRunner is the interface for running forecasts.
type forecastRunner interface {
	Forecast(ctx context.Context, req service.ForecastRequest) (*service.ForecastResult, error)
}

// ForecastHandler handles POST /v1/forecast.
type ForecastHandler struct {
	ForecastService forecastRunner
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(svc forecastRunner) *ForecastHandler {
	return &ForecastHandler{ForecastService: svc}
}

// Register registers the forecast endpoint with the Huma API.
func (h *ForecastHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "run-forecast",
		Method:      http.MethodPost,
		Path:        "/v1/forecast",
		Summary:     "Forecast cashflow",
		Description: "Forecasts the daily cumulative cashflow of the ledger. Degraded results carry a _Fallback model type.",
		Tags:        []string{"Forecast"},
	}, h.handle)
}

func parseForecastInput(input *ForecastInput) service.ForecastRequest {
	return service.ForecastRequest{
		HorizonDays:  input.Body.HorizonDays,
		Scenario:     input.Body.Scenario,
		Models:       input.Body.Models,
		LookbackDays: input.Body.LookbackDays,
	}
}

func (h *ForecastHandler) handle(ctx context.Context, input *ForecastInput) (*ForecastOutput, error) {
	logData := logging.GetLogData(ctx)

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("forecastMs")
	}
	result, err := h.ForecastService.Forecast(ctx, parseForecastInput(input))
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownModel):
			return nil, huma.NewError(http.StatusBadRequest, "unknown model", err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, huma.NewError(http.StatusGatewayTimeout, "forecast timed out", err)
		default:
			return nil, huma.NewError(http.StatusInternalServerError, "failed to run forecast", err)
		}
	}

	if logData != nil {
		logData.AddData("entryCount", result.EntryCount)
		logData.AddData("modelType", result.Report.ModelType)
		logData.AddData("horizonDays", result.Report.HorizonDays)
		if len(result.UnknownCurrencies) > 0 {
			logData.AddData("unknownCurrencies", result.UnknownCurrencies)
		}
	}

	return &ForecastOutput{
		LedgerEntries: result.EntryCount,
		Body:          result.Report,
	}, nil
}
