// Package config holds the tunables a timely-dataflow progress-tracking
// runtime needs at startup: worker/communicator sizing, the fixpoint
// iteration bound, and observability toggles. It does not configure the
// dataflow graph itself — topology is wired in code via pkg/subgraph.
package config

import "errors"

// Config is the top-level configuration for a progress-tracking runtime
// embedding. Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Worker  WorkerConfig  `mapstructure:"worker"`
	Summary SummaryConfig `mapstructure:"summary"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// WorkerConfig holds worker.count. LoadConfig requires it to be positive;
// nothing else in this module reads it.
type WorkerConfig struct {
	Count int `mapstructure:"count"`
}

// SummaryConfig holds summary.max_iterations. LoadConfig requires it to be
// positive; pkg/subgraph does not read it, and its set_summaries fixpoint
// runs without an iteration cap.
type SummaryConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
}

// LogConfig controls the slog handler level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig toggles the demo driver's diagnostics server, which serves
// /healthz, /readyz and the Prometheus /metrics endpoint on Addr. The
// PointstampMetrics instrument set is created whether or not it is enabled.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Default values applied by LoadConfig before reading overrides.
const (
	DefaultWorkerCount          = 1
	DefaultSummaryMaxIterations = 10_000
	DefaultLogLevel             = "info"
	DefaultMetricsEnabled       = false
	DefaultMetricsAddr          = ":9090"
)

// Sentinel errors for configuration validation.
var (
	ErrInvalidWorkerCount   = errors.New("worker.count must be positive")
	ErrInvalidMaxIterations = errors.New("summary.max_iterations must be positive")
	ErrInvalidLogLevel      = errors.New("log.level must be one of debug, info, warn, error")
	ErrInvalidMetricsAddr   = errors.New("metrics.addr must be non-empty when metrics.enabled is true")
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Worker.Count <= 0 {
		return ErrInvalidWorkerCount
	}

	if c.Summary.MaxIterations <= 0 {
		return ErrInvalidMaxIterations
	}

	if !validLogLevels[c.Log.Level] {
		return ErrInvalidLogLevel
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return ErrInvalidMetricsAddr
	}

	return nil
}
