package forecast

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/cashflow-forecaster/internal/forest"
)

// DefaultHorizonDays is used when a request does not name a positive horizon.
const DefaultHorizonDays = 30

// Weights are the ensemble blending weights per model. They are renormalised over the
// models that actually take part in a blend.
type Weights struct {
	ARIMA        float64
	Seasonal     float64
	RandomForest float64
}

// DefaultWeights favours the two pure time-series models.
func DefaultWeights() Weights {
	return Weights{ARIMA: 0.4, Seasonal: 0.4, RandomForest: 0.2}
}

func (w Weights) of(kind ModelKind) float64 {
	switch kind {
	case ModelARIMA:
		return w.ARIMA
	case ModelSeasonal:
		return w.Seasonal
	case ModelRandomForest:
		return w.RandomForest
	default:
		return 0
	}
}

// Config tunes the forecaster. The zero value is usable; New fills the defaults.
type Config struct {
	Weights           Weights
	SignificanceLevel float64
	Seasonal          SeasonalConfig
	Regression        RegressionConfig

	// Verbose surfaces per-fit diagnostics (grid-search convergence failures and the like)
	// at debug level. They are dropped otherwise.
	Verbose bool
	// Logger receives diagnostics. Nil discards everything.
	Logger *logrus.Logger
	// Now anchors future dates when there is no history at all.
	Now func() time.Time
}

// RegressionConfig tunes the feature-based regression model.
type RegressionConfig struct {
	MinRows      int
	TestFraction float64
	BandFraction float64
	Forest       forest.Config
}

func (c Config) withDefaults() Config {
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
	if c.SignificanceLevel <= 0 || c.SignificanceLevel >= 1 {
		c.SignificanceLevel = DefaultSignificanceLevel
	}
	c.Seasonal = c.Seasonal.withDefaults()
	if c.Regression.MinRows <= 0 {
		c.Regression.MinRows = 10
	}
	if c.Regression.TestFraction <= 0 || c.Regression.TestFraction >= 1 {
		c.Regression.TestFraction = 0.2
	}
	if c.Regression.BandFraction <= 0 {
		c.Regression.BandFraction = 0.1
	}
	c.Regression.Forest = c.Regression.Forest.WithDefaults()
	if c.Logger == nil {
		c.Logger = &logrus.Logger{
			Out:       io.Discard,
			Formatter: &logrus.JSONFormatter{},
			Hooks:     make(logrus.LevelHooks),
			Level:     logrus.PanicLevel,
		}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

type diagnostics struct {
	log     *logrus.Logger
	verbose bool
}

func (d diagnostics) fitFailed(model ModelKind, fields logrus.Fields, err error) {
	if !d.verbose {
		return
	}
	d.log.WithFields(fields).WithField("model", string(model)).WithError(err).Debug("Forecast.fit.skipped")
}

func (d diagnostics) fellBack(model ModelKind, horizon int, err error) {
	d.log.WithFields(logrus.Fields{
		"model":   string(model),
		"kind":    KindOf(err).String(),
		"horizon": horizon,
	}).WithError(err).Warn("Forecast.model.fallback")
}
