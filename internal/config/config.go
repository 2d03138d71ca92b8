// Package config loads the server configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/coin-measure-mcp/internal/detection"
	"github.com/ironsheep/coin-measure-mcp/internal/measure"
)

// Config holds runtime configuration for the measurement server.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	// LogLevel is a zerolog level name: trace, debug, info, warn, error.
	LogLevel string `json:"log_level"`
	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9464".
	MetricsAddr string `json:"metrics_addr"`

	// Preset names the base detection configuration.
	Preset string `json:"preset"`
	// Detection overrides individual fields of the preset, using the same
	// JSON names as detection.Config. Absent fields keep the preset value.
	Detection json.RawMessage `json:"detection,omitempty"`

	// CoinDiameterMM is the real diameter of the reference coin.
	CoinDiameterMM float64 `json:"coin_diameter_mm"`
	// InitTimeoutSeconds bounds how long a request waits for the processing
	// runtime to come up.
	InitTimeoutSeconds float64 `json:"init_timeout_seconds"`
	// BatchWorkers caps how many images a batch detection processes at once.
	BatchWorkers int `json:"batch_workers"`
	// CloseRadius is how close, in pixels, a click must land to the first
	// vertex to close a manual polygon.
	CloseRadius float64 `json:"close_radius"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:           "info",
		MetricsAddr:        "",
		Preset:             "default",
		CoinDiameterMM:     measure.CoinDiameterMM,
		InitTimeoutSeconds: 30,
		BatchWorkers:       4,
		CloseRadius:        measure.DefaultCloseRadius,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if !(c.CoinDiameterMM > 0) {
		return fmt.Errorf("coin_diameter_mm must be positive, got %v", c.CoinDiameterMM)
	}
	if !(c.InitTimeoutSeconds > 0) {
		return fmt.Errorf("init_timeout_seconds must be positive, got %v", c.InitTimeoutSeconds)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("batch_workers must be at least 1, got %d", c.BatchWorkers)
	}
	if !(c.CloseRadius > 0) {
		return fmt.Errorf("close_radius must be positive, got %v", c.CloseRadius)
	}
	if _, err := c.DetectionConfig(); err != nil {
		return err
	}
	return nil
}

// InitTimeout returns the runtime wait bound as a duration.
func (c *Config) InitTimeout() time.Duration {
	return time.Duration(c.InitTimeoutSeconds * float64(time.Second))
}

// DetectionConfig resolves the preset and applies the overrides on top.
func (c *Config) DetectionConfig() (detection.Config, error) {
	dc, err := detection.Preset(c.Preset)
	if err != nil {
		return detection.Config{}, err
	}
	if len(c.Detection) > 0 {
		if err := json.Unmarshal(c.Detection, &dc); err != nil {
			return detection.Config{}, fmt.Errorf("detection overrides: %w", err)
		}
	}
	if err := dc.Validate(); err != nil {
		return detection.Config{}, fmt.Errorf("detection: %w", err)
	}
	return dc, nil
}

// Load reads configuration from the given JSON file path. If the file does
// not exist it returns DefaultConfig(). Fields missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
