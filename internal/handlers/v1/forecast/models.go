package forecast

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	engine "github.com/carson-networks/cashflow-forecaster/internal/forecast"
)

// ListModelsResponseBody is the response body for listing model recommendations.
type ListModelsResponseBody struct {
	Recommendations []engine.Recommendation `json:"recommendations" doc:"Which model suits which planning scenario"`
}

// ListModelsOutput is the Huma output for listing model recommendations.
type ListModelsOutput struct {
	Body ListModelsResponseBody
}

type recommender interface {
	Recommendations() []engine.Recommendation
}

// ListModelsHandler handles GET /v1/forecast/models.
type ListModelsHandler struct {
	ForecastService recommender
}

func NewListModelsHandler(svc recommender) *ListModelsHandler {
	return &ListModelsHandler{ForecastService: svc}
}

func (h *ListModelsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-forecast-models",
		Method:      http.MethodGet,
		Path:        "/v1/forecast/models",
		Summary:     "List forecast models",
		Tags:        []string{"Forecast"},
	}, h.handle)
}

func (h *ListModelsHandler) handle(ctx context.Context, _ *struct{}) (*ListModelsOutput, error) {
	return &ListModelsOutput{
		Body: ListModelsResponseBody{Recommendations: h.ForecastService.Recommendations()},
	}, nil
}
