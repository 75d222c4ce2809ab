package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// FileVariable names an optional YAML file layered over the defaults.
	FileVariable = "FORECASTER_CONFIG"

	envPrefix         = "FORECASTER_"
	postgresEnvPrefix = "POSTGRES_"
)

type Config struct {
	Postgres Postgres `koanf:"postgres"`
	HTTP     HTTP     `koanf:"http"`
	Log      Log      `koanf:"log"`
	Operator Operator `koanf:"operator"`
	Ledger   Ledger   `koanf:"ledger"`
	Forecast Forecast `koanf:"forecast"`
}

type Postgres struct {
	Address  string `koanf:"address"`
	Port     string `koanf:"port"`
	DB       string `koanf:"db"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type HTTP struct {
	Port string `koanf:"port"`
}

type Log struct {
	Level string `koanf:"level"`
}

// Operator sizes the forecast worker pool.
type Operator struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// Ledger controls how much history is read and how it is normalised.
type Ledger struct {
	LookbackDays int               `koanf:"lookback_days"`
	BaseCurrency string            `koanf:"base_currency"`
	Rates        map[string]string `koanf:"rates"`
}

type Forecast struct {
	Seed    uint64  `koanf:"seed"`
	Verbose bool    `koanf:"verbose"`
	Weights Weights `koanf:"weights"`
}

type Weights struct {
	ARIMA        float64 `koanf:"arima"`
	Seasonal     float64 `koanf:"seasonal"`
	RandomForest float64 `koanf:"random_forest"`
}

// In all cases the default behavior should be for the docker compose setup
var defaults = map[string]interface{}{
	"postgres.address":               "localhost",
	"postgres.port":                  "5433",
	"postgres.db":                    "postgres",
	"postgres.username":              "postgres",
	"postgres.password":              "testpassword",
	"http.port":                      "9446",
	"log.level":                      "info",
	"operator.workers":               4,
	"operator.queue_size":            64,
	"ledger.lookback_days":           365,
	"ledger.base_currency":           "SGD",
	"forecast.seed":                  42,
	"forecast.verbose":               false,
	"forecast.weights.arima":         0.4,
	"forecast.weights.seasonal":      0.4,
	"forecast.weights.random_forest": 0.2,
}

// ProcessEnvironmentVariables loads the defaults, then the file named by FORECASTER_CONFIG
// when set, then FORECASTER_* and POSTGRES_* variables.
func ProcessEnvironmentVariables() (*Config, error) {
	return Load(os.Getenv(FileVariable))
}

// Load is ProcessEnvironmentVariables with an explicit file path. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	err = k.Load(env.Provider(postgresEnvPrefix, ".", func(s string) string {
		return "postgres." + strings.ToLower(strings.TrimPrefix(s, postgresEnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: postgres env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port == "" {
		return errors.New("http.port must be set")
	}
	if c.Operator.Workers < 1 {
		return fmt.Errorf("operator.workers must be >= 1, got %d", c.Operator.Workers)
	}
	if c.Operator.QueueSize < 0 {
		return fmt.Errorf("operator.queue_size must be >= 0, got %d", c.Operator.QueueSize)
	}
	if c.Ledger.LookbackDays < 1 {
		return fmt.Errorf("ledger.lookback_days must be >= 1, got %d", c.Ledger.LookbackDays)
	}
	if c.Ledger.BaseCurrency == "" {
		return errors.New("ledger.base_currency must be set")
	}
	w := c.Forecast.Weights
	if w.ARIMA < 0 || w.Seasonal < 0 || w.RandomForest < 0 {
		return errors.New("forecast.weights must be >= 0")
	}
	if w.ARIMA+w.Seasonal+w.RandomForest == 0 {
		return errors.New("forecast.weights must not all be zero")
	}
	return nil
}

// ConnString is the lib/pq URL for the configured database.
func (c *Config) ConnString() string {
	p := c.Postgres
	return "postgres://" + p.Username + ":" + p.Password + "@" + p.Address + ":" + p.Port + "/" + p.DB + "?sslmode=disable"
}
