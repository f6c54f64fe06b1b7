package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lflstress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
workers:
  producers: 8
  splitters: 0
ops_per_producer: 500
sorted: true
rate: 2500
duration: 30s
log:
  level: debug
metrics:
  addr: ":9100"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers.Producers)
	assert.Equal(t, 1, cfg.Workers.Removers, "unset fields keep their default")
	assert.Equal(t, 0, cfg.Workers.Splitters)
	assert.Equal(t, 500, cfg.OpsPerProducer)
	assert.True(t, cfg.Sorted)
	assert.Equal(t, 2500.0, cfg.Rate)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "workers: [1, 2]\n"))
	require.ErrorContains(t, err, "parsing")

	_, err = Load(writeConfig(t, "duration: 0s\n"))
	require.ErrorContains(t, err, "duration must be positive")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"no producers", func(c *Config) { c.Workers.Producers = 0 }, "workers.producers"},
		{"negative readers", func(c *Config) { c.Workers.Readers = -1 }, "must not be negative"},
		{"no ops", func(c *Config) { c.OpsPerProducer = 0 }, "ops_per_producer"},
		{"negative rate", func(c *Config) { c.Rate = -1 }, "rate"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, `unknown log.level "trace"`},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, `unknown log.format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Workers.Producers = 0
	cfg.Duration = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers.producers")
	assert.Contains(t, err.Error(), "duration")
}
