package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	engine "github.com/carson-networks/cashflow-forecaster/internal/forecast"
	"github.com/carson-networks/cashflow-forecaster/internal/service"
)

type mockForecastService struct {
	mock.Mock
}

func (m *mockForecastService) Forecast(ctx context.Context, req service.ForecastRequest) (*service.ForecastResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*service.ForecastResult)
	return result, args.Error(1)
}

func (m *mockForecastService) Recommendations() []engine.Recommendation {
	return m.Called().Get(0).([]engine.Recommendation)
}

func newTestAPI(t *testing.T, svc *mockForecastService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewForecastHandler(svc).Register(api)
	NewListModelsHandler(svc).Register(api)
	return api
}

func sampleReport() engine.Report {
	return engine.Report{
		Scenario:    "base",
		HorizonDays: 2,
		Models:      []string{"arima"},
		EnsembleResult: engine.EnsembleResult{ModelResult: engine.ModelResult{
			ModelType:          "ARIMA",
			Order:              []int{1, 1, 0},
			Forecast:           []float64{110, 120},
			ConfidenceInterval: engine.Interval{Lower: []float64{100, 105}, Upper: []float64{120, 135}},
			FutureDates:        []string{"2025-01-02", "2025-01-03"},
			Metrics:            engine.Metrics{MAE: 1, RMSE: 2, R2: 0.9},
			Trend:              engine.TrendIncreasing,
		}},
	}
}

// -- parseForecastInput tests --

func TestParseForecastInput(t *testing.T) {
	req := parseForecastInput(&ForecastInput{Body: ForecastBody{
		HorizonDays:  90,
		Scenario:     "expansion",
		Models:       []string{"ensemble"},
		LookbackDays: 180,
	}})

	assert.Equal(t, service.ForecastRequest{
		HorizonDays:  90,
		Scenario:     "expansion",
		Models:       []string{"ensemble"},
		LookbackDays: 180,
	}, req)
}

// -- HTTP integration tests --

func TestHTTP_Forecast_Success(t *testing.T) {
	svc := new(mockForecastService)
	svc.On("Forecast", mock.Anything, service.ForecastRequest{HorizonDays: 2, Scenario: "base"}).
		Return(&service.ForecastResult{Report: sampleReport(), EntryCount: 42}, nil)

	resp := newTestAPI(t, svc).Post("/v1/forecast", ForecastBody{HorizonDays: 2, Scenario: "base"})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "42", resp.Header().Get("X-Ledger-Entries"))
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ARIMA", body["model_type"])
	assert.Equal(t, "base", body["scenario"])
	assert.Equal(t, []any{110.0, 120.0}, body["forecast"])
	assert.Equal(t, []any{1.0, 1.0, 0.0}, body["model_order"])
	assert.NotContains(t, body, "model_weights")
	svc.AssertExpectations(t)
}

func TestHTTP_Forecast_EmptyBodyUsesDefaults(t *testing.T) {
	svc := new(mockForecastService)
	svc.On("Forecast", mock.Anything, service.ForecastRequest{}).
		Return(&service.ForecastResult{Report: sampleReport()}, nil)

	resp := newTestAPI(t, svc).Post("/v1/forecast", map[string]any{})

	assert.Equal(t, http.StatusOK, resp.Code)
	svc.AssertExpectations(t)
}

func TestHTTP_Forecast_PassesModelAliases(t *testing.T) {
	svc := new(mockForecastService)
	svc.On("Forecast", mock.Anything, service.ForecastRequest{Models: []string{"RandomForest", "rf", "Prophet"}}).
		Return(&service.ForecastResult{Report: sampleReport()}, nil)

	resp := newTestAPI(t, svc).Post("/v1/forecast", map[string]any{"models": []string{"RandomForest", "rf", "Prophet"}})

	assert.Equal(t, http.StatusOK, resp.Code)
	svc.AssertExpectations(t)
}

func TestHTTP_Forecast_UnknownModelIsBadRequest(t *testing.T) {
	svc := new(mockForecastService)
	svc.On("Forecast", mock.Anything, service.ForecastRequest{Models: []string{"lstm"}}).
		Return(nil, fmt.Errorf("%w: %q", service.ErrUnknownModel, "lstm"))

	resp := newTestAPI(t, svc).Post("/v1/forecast", map[string]any{"models": []string{"lstm"}})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	svc.AssertExpectations(t)
}

func TestHTTP_Forecast_RejectsNegativeHorizon(t *testing.T) {
	svc := new(mockForecastService)

	resp := newTestAPI(t, svc).Post("/v1/forecast", map[string]any{"horizonDays": -1})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestHTTP_Forecast_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: %q", service.ErrUnknownModel, "x"), http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			svc := new(mockForecastService)
			svc.On("Forecast", mock.Anything, mock.Anything).Return(nil, tt.err)

			resp := newTestAPI(t, svc).Post("/v1/forecast", ForecastBody{HorizonDays: 7})

			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestHTTP_ListModels(t *testing.T) {
	svc := new(mockForecastService)
	svc.On("Recommendations").Return(engine.ModelRecommendations())

	resp := newTestAPI(t, svc).Get("/v1/forecast/models")

	require.Equal(t, http.StatusOK, resp.Code)
	var body ListModelsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Recommendations, 6)
	assert.Equal(t, engine.ModelARIMA, body.Recommendations[0].Model)
}
