package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/carson-networks/cashflow-forecaster/internal/logging"
)

const pingTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Storage pinger
}

func NewHandler(store pinger) Handler {
	return Handler{Storage: store}
}

func (h *Handler) Handler(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	if req.Method != "GET" {
		w.WriteHeader(http.StatusBadRequest)
		return errors.New("status: method not GET")
	}

	if h.Storage != nil {
		ctx, cancel := context.WithTimeout(req.Context(), pingTimeout)
		defer cancel()

		stopTimer := logData.AddTiming("pingMs")
		err := h.Storage.Ping(ctx)
		stopTimer()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return err
		}
	}

	w.WriteHeader(http.StatusOK)
	return nil
}
