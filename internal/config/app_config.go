package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds process-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the backend API port. Defaults to 8000, the dev server's default proxy target.
	Port int `envconfig:"PORT" default:"8000"`

	// DataDir is the root data directory. Defaults to ~/.coffeebar.
	DataDir string `envconfig:"COFFEEBAR_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// RateLimit is the per-IP request budget per minute for /api. Zero disables limiting.
	RateLimit int `envconfig:"COFFEEBAR_RATE_LIMIT" default:"120"`

	// WaterCapacityML and CoffeeCapacityG size the machine containers.
	WaterCapacityML int `envconfig:"WATER_CAPACITY_ML" default:"2000"`
	CoffeeCapacityG int `envconfig:"COFFEE_CAPACITY_G" default:"500"`

	// OTLPEndpoint enables trace export when set, e.g. http://localhost:4317.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.coffeebar if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".coffeebar")
	}
	if c.WaterCapacityML < 1 {
		return nil, fmt.Errorf("WATER_CAPACITY_ML must be at least 1, got %d", c.WaterCapacityML)
	}
	if c.CoffeeCapacityG < 1 {
		return nil, fmt.Errorf("COFFEE_CAPACITY_G must be at least 1, got %d", c.CoffeeCapacityG)
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (~/.coffeebar/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}
