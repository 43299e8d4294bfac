package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/silt/config"
	"github.com/pthm-cable/silt/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Spawn jitter seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", 0, "Dispatcher worker count (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	s, err := sim.New(cfg, sim.Options{
		Seed:      rngSeed,
		Workers:   *workers,
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	slog.Info("starting simulation",
		"particles", cfg.Particles.Count,
		"dt", cfg.Physics.DT,
		"seed", rngSeed,
		"max_ticks", *maxTicks,
	)

	start := time.Now()
	for *maxTicks <= 0 || s.Tick() < *maxTicks {
		if err := s.Step(); err != nil {
			slog.Error("step failed", "tick", s.Tick(), "error", err)
			os.Exit(1)
		}
	}

	elapsed := time.Since(start)
	slog.Info("simulation finished",
		"ticks", s.Tick(),
		"sim_time", s.SimTime(),
		"wall_time", elapsed.Seconds(),
		"ticks_per_sec", float64(s.Tick())/elapsed.Seconds(),
	)
}
