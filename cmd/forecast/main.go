// Command forecast runs the forecaster over a cashflow CSV export and prints the report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/carson-networks/cashflow-forecaster/internal/config"
	"github.com/carson-networks/cashflow-forecaster/internal/currency"
	"github.com/carson-networks/cashflow-forecaster/internal/forecast"
	"github.com/carson-networks/cashflow-forecaster/internal/logging"
	"github.com/carson-networks/cashflow-forecaster/internal/operator/actions"
	"github.com/carson-networks/cashflow-forecaster/internal/service"
	"github.com/carson-networks/cashflow-forecaster/internal/storage"
	"github.com/carson-networks/cashflow-forecaster/internal/storage/cashflow"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("forecast")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "forecast",
		Usage: "forecast daily cashflow from a CSV export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "cashflow CSV with payment_date, payment_amount, currency, direction, category"},
			&cli.IntFlag{Name: "horizon", Aliases: []string{"n"}, Value: forecast.DefaultHorizonDays, Usage: "days to forecast"},
			&cli.StringFlag{Name: "scenario", Usage: "scenario label echoed in the report"},
			&cli.StringSliceFlag{Name: "model", Aliases: []string{"m"}, Usage: "arima, seasonal, random_forest or ensemble; repeatable"},
			&cli.IntFlag{Name: "lookback", Usage: "days of history before the latest entry, 0 for all"},
			&cli.StringFlag{Name: "config", EnvVars: []string{config.FileVariable}, Usage: "YAML config for weights, seed and rates"},
			&cli.BoolFlag{Name: "verbose", Usage: "log per-fit diagnostics to stderr"},
			&cli.BoolFlag{Name: "dump", Usage: "print the report with spew instead of JSON"},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	env, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	logger := logging.SetupLogging()
	logger.SetOutput(c.App.ErrWriter)
	logger.SetLevel(logrus.WarnLevel)
	if c.Bool("verbose") {
		env.Forecast.Verbose = true
		logger.SetLevel(logrus.DebugLevel)
	}

	f, err := os.Open(c.String("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := cashflow.NewCSVTable(f)
	if err != nil {
		return err
	}
	if table.Skipped() > 0 {
		logger.WithField("rows", table.Skipped()).Warn("Forecast.csv.skipped")
	}

	converter, err := currency.NewConverter(env.Ledger.BaseCurrency, env.Ledger.Rates)
	if err != nil {
		return err
	}

	models := make([]forecast.ModelKind, 0, len(c.StringSlice("model")))
	for _, name := range c.StringSlice("model") {
		kind, ok := forecast.ParseModelKind(name)
		if !ok {
			return fmt.Errorf("%w: %q", service.ErrUnknownModel, name)
		}
		models = append(models, kind)
	}

	now := table.Latest()
	if now.IsZero() {
		now = time.Now()
	}

	action := &actions.RunForecast{
		Forecaster: forecast.New(service.ForecastConfig(env, logger)),
		Converter:  converter,
		Request: forecast.Request{
			HorizonDays: c.Int("horizon"),
			Scenario:    c.String("scenario"),
			Models:      models,
		},
		LookbackDays: c.Int("lookback"),
		Now:          now,
	}
	if err := action.Perform(context.Background(), &storage.Reader{Cashflow: table}); err != nil {
		return err
	}
	if len(action.UnknownCurrencies) > 0 {
		logger.WithField("currencies", action.UnknownCurrencies).Warn("Forecast.currency.unknown")
	}

	if c.Bool("dump") {
		spew.Fdump(c.App.Writer, action.Report)
		return nil
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(action.Report)
}
