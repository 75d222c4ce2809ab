package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carson-networks/cashflow-forecaster/api"
	"github.com/carson-networks/cashflow-forecaster/internal/config"
	"github.com/carson-networks/cashflow-forecaster/internal/currency"
	"github.com/carson-networks/cashflow-forecaster/internal/forecast"
	"github.com/carson-networks/cashflow-forecaster/internal/logging"
	"github.com/carson-networks/cashflow-forecaster/internal/operator"
	"github.com/carson-networks/cashflow-forecaster/internal/service"
	"github.com/carson-networks/cashflow-forecaster/internal/storage"
)

func main() {
	logger := logging.SetupLogging()
	logger.Info("cashflow-forecaster starting")

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logger.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}

	if err := logging.SetLevel(logger, envConfig.Log.Level); err != nil {
		logger.WithError(err).Warn("logging.SetLevel")
	}

	converter, err := currency.NewConverter(envConfig.Ledger.BaseCurrency, envConfig.Ledger.Rates)
	if err != nil {
		logger.WithError(err).Fatal("currency.NewConverter")
		return
	}

	dbStorage, err := storage.NewStorage(envConfig)
	if err != nil {
		logger.WithError(err).Fatal("storage.NewStorage")
		return
	}
	defer dbStorage.Close()

	forecaster := forecast.New(service.ForecastConfig(envConfig, logger))

	delegator := operator.NewOperatorDelegator(dbStorage, envConfig.Operator.Workers, envConfig.Operator.QueueSize)
	delegator.Start()

	svc := service.NewService(delegator, forecaster, converter, envConfig.Ledger.LookbackDays)
	httpRest := api.NewRest(logger, envConfig.HTTP.Port, dbStorage, svc)

	go httpRest.Serve()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpRest.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("HttpServer.Shutdown")
	}
	delegator.Stop()
	logger.Info("cashflow-forecaster stopped")
}
