// Command lflstress hammers a lock-free list with concurrent producers,
// removers, readers and splitters, then checks its invariants.
//
// Usage:
//
//	lflstress --producers 4 --removers 2 --ops 50000 --sorted
//	lflstress --config workload.yaml --metrics-addr :9100
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ansiwen/golflist/internal/config"
	"github.com/ansiwen/golflist/internal/stress"
)

var (
	configPath  string
	producers   int
	removers    int
	readers     int
	splitters   int
	ops         int
	sorted      bool
	opsRate     float64
	duration    time.Duration
	logLevel    string
	logFormat   string
	metricsAddr string

	rootCmd = &cobra.Command{
		Use:           "lflstress",
		Short:         "Stress a lock-free list and verify its invariants",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runStress,
	}
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML workload file")
	f.IntVar(&producers, "producers", 0, "inserting goroutines")
	f.IntVar(&removers, "removers", 0, "removing/updating goroutines")
	f.IntVar(&readers, "readers", 0, "searching goroutines")
	f.IntVar(&splitters, "splitters", 0, "parallel draining goroutines")
	f.IntVar(&ops, "ops", 0, "distinct values inserted per producer")
	f.BoolVar(&sorted, "sorted", false, "use an ascending comparator")
	f.Float64Var(&opsRate, "rate", 0, "operations per second per worker, 0 for unlimited")
	f.DurationVar(&duration, "duration", 0, "upper bound for the run")
	f.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&logFormat, "log-format", "", "text or json")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lflstress:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}
	f := cmd.Flags()
	if f.Changed("producers") {
		cfg.Workers.Producers = producers
	}
	if f.Changed("removers") {
		cfg.Workers.Removers = removers
	}
	if f.Changed("readers") {
		cfg.Workers.Readers = readers
	}
	if f.Changed("splitters") {
		cfg.Workers.Splitters = splitters
	}
	if f.Changed("ops") {
		cfg.OpsPerProducer = ops
	}
	if f.Changed("sorted") {
		cfg.Sorted = sorted
	}
	if f.Changed("rate") {
		cfg.Rate = opsRate
	}
	if f.Changed("duration") {
		cfg.Duration = duration
	}
	if f.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func runStress(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	runner, err := stress.New(cfg, log, reg)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	for _, v := range rep.Violations {
		log.Error("invariant violated", "detail", v)
	}
	if !rep.OK() {
		return fmt.Errorf("%d invariant violations in run %s", len(rep.Violations), rep.RunID)
	}
	return nil
}
