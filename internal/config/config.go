// Package config holds the workload description for the stress driver.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one stress run. Zero values are filled from Default by
// Load; Validate rejects what cannot run.
type Config struct {
	// Workers contains the number of goroutines per role.
	Workers WorkersConfig `yaml:"workers"`

	// OpsPerProducer is how many distinct values each producer inserts.
	OpsPerProducer int `yaml:"ops_per_producer"`

	// Sorted runs against a list with an ascending comparator.
	Sorted bool `yaml:"sorted"`

	// Rate limits each worker to this many operations per second, 0 for no
	// limit.
	Rate float64 `yaml:"rate"`

	// Duration bounds the whole run.
	Duration time.Duration `yaml:"duration"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type WorkersConfig struct {
	Producers int `yaml:"producers"`
	Removers  int `yaml:"removers"`
	Readers   int `yaml:"readers"`
	Splitters int `yaml:"splitters"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	// Addr serves /metrics when non-empty, e.g. ":9100".
	Addr string `yaml:"addr"`
}

func Default() Config {
	return Config{
		Workers: WorkersConfig{
			Producers: 2,
			Removers:  1,
			Readers:   1,
			Splitters: 1,
		},
		OpsPerProducer: 10000,
		Duration:       time.Minute,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config.Load: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config.Load: parsing %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Workers.Producers < 1 {
		errs = append(errs, errors.New("workers.producers must be at least 1"))
	}
	if c.Workers.Removers < 0 || c.Workers.Readers < 0 || c.Workers.Splitters < 0 {
		errs = append(errs, errors.New("worker counts must not be negative"))
	}
	if c.OpsPerProducer < 1 {
		errs = append(errs, errors.New("ops_per_producer must be at least 1"))
	}
	if c.Rate < 0 {
		errs = append(errs, errors.New("rate must not be negative"))
	}
	if c.Duration <= 0 {
		errs = append(errs, errors.New("duration must be positive"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}
