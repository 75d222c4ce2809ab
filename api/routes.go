package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/cashflow-forecaster/internal/handlers/v1/forecast"
	"github.com/carson-networks/cashflow-forecaster/internal/handlers/v1/status"
	"github.com/carson-networks/cashflow-forecaster/internal/logging"
	"github.com/carson-networks/cashflow-forecaster/internal/service"
	"github.com/carson-networks/cashflow-forecaster/internal/storage"
)

type Rest struct {
	Logger  *logrus.Logger
	Port    string
	Storage *storage.Storage
	Service *service.Service

	server *http.Server
}

func NewRest(logger *logrus.Logger, port string, store *storage.Storage, svc *service.Service) *Rest {
	r := &Rest{
		Logger:  logger,
		Port:    port,
		Storage: store,
		Service: svc,
	}
	r.server = &http.Server{
		Addr:              ":" + port,
		Handler:           r.Routes(),
		ReadTimeout:       time.Duration(30) * time.Second,
		WriteTimeout:      time.Duration(120) * time.Second,
		IdleTimeout:       time.Duration(10) * time.Second,
		ReadHeaderTimeout: time.Duration(10) * time.Second,
	}
	return r
}

// Routes builds the mux: /status as a plain handler, everything under /v1 through huma.
func (r *Rest) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	statusHandler := status.NewHandler(r.Storage)
	mux.HandleFunc("/status", logging.LoggingWrapper("Status", r.Logger, statusHandler.Handler))

	api := humago.New(mux, huma.DefaultConfig("Cashflow Forecaster", "1.0.0"))
	api.UseMiddleware(logging.HumaMiddleware(r.Logger))

	forecast.NewForecastHandler(r.Service.Forecast).Register(api)
	forecast.NewListModelsHandler(r.Service.Forecast).Register(api)

	return mux
}

func (r *Rest) Serve() {
	r.Logger.WithField("port", r.Port).Info("HttpServer.Serve.listening")
	err := r.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		r.Logger.WithError(err).Error("HttpServer.Serve.listen error")
	}
	r.Logger.Info("HttpServer.Serve.shutting down")
}

func (r *Rest) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}
