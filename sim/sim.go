// Package sim assembles the particle pipeline and drives it tick by tick.
package sim

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/pthm-cable/silt/compute"
	"github.com/pthm-cable/silt/config"
	"github.com/pthm-cable/silt/particle"
	"github.com/pthm-cable/silt/solver"
	"github.com/pthm-cable/silt/telemetry"
)

// Options holds the driver-level knobs that are not part of the physics
// configuration.
type Options struct {
	Seed      int64  // Spawn jitter seed
	Workers   int    // Dispatcher workers; 0 uses the config value
	OutputDir string // CSV output directory; empty disables file output
	LogStats  bool   // Log window stats through slog
	Logger    *slog.Logger
}

// Simulation owns the particle state and the full stage pipeline.
type Simulation struct {
	cfg   *config.Config
	store *particle.Store
	pairs *particle.KeyPingPong
	disp  *compute.Dispatcher

	gravity    solver.GravityIntegrator
	predictor  solver.PositionPredictor
	hasher     solver.SpatialHasher
	sorter     *solver.RadixSorter
	density    solver.DensityEstimator
	constraint *solver.ConstraintSolver
	integrator solver.PositionIntegrator

	perf   *telemetry.PerfCollector
	output *telemetry.OutputManager
	logger *slog.Logger

	tick     int64
	logStats bool
}

// New builds a simulation from the given config, spawns the initial particle
// block and starts the dispatcher workers.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workers := opts.Workers
	if workers == 0 {
		workers = cfg.Solver.Workers
	}

	count := cfg.Particles.Count
	store := particle.NewStore(count, cfg.Derived.Mass32)

	// Spawn a roughly cubic block just inside the lower AABB corner.
	side := int(math.Ceil(math.Cbrt(float64(count))))
	spacing := float32(cfg.Particles.Spacing)
	origin := cfg.Derived.AABBMin.Add(
		cfg.Derived.AABBMax.Sub(cfg.Derived.AABBMin).Mul(0.25))
	rng := rand.New(rand.NewSource(opts.Seed))
	store.SpawnBlock(origin, spacing, side, side, float32(cfg.Particles.Jitter), rng)
	store.ClampToAABB(cfg.Derived.AABBMin, cfg.Derived.AABBMax)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, err
	}

	d := cfg.Derived
	s := &Simulation{
		cfg:   cfg,
		store: store,
		pairs: particle.NewKeyPingPong(count),
		disp:  compute.NewDispatcher(workers),

		gravity:   solver.GravityIntegrator{Gravity: d.Gravity, DT: d.DT32},
		predictor: solver.PositionPredictor{DT: d.DT32},
		hasher:    solver.SpatialHasher{GridSize: d.GridCellSize},
		sorter:    solver.NewRadixSorter(),
		density: solver.NewDensityEstimator(
			d.Mass32, cfg.Physics.SmoothingRadius, cfg.Physics.MaxNeighbors),
		constraint: solver.NewConstraintSolver(
			d.RestDensity, cfg.Physics.SmoothingRadius,
			d.Epsilon, d.Relaxation, cfg.Physics.MaxNeighbors),
		integrator: solver.PositionIntegrator{
			DT: d.DT32, AABBMin: d.AABBMin, AABBMax: d.AABBMax},

		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		output:   output,
		logger:   logger,
		logStats: opts.LogStats,
	}
	s.disp.Start()

	return s, nil
}

// Store exposes the particle buffers, mainly for tests and tooling.
func (s *Simulation) Store() *particle.Store {
	return s.store
}

// Tick returns the number of completed steps.
func (s *Simulation) Tick() int64 {
	return s.tick
}

// SimTime returns the simulated time in seconds.
func (s *Simulation) SimTime() float64 {
	return float64(s.tick) * s.cfg.Physics.DT
}

// Step advances the simulation by one fixed timestep: gravity, position
// prediction, spatial hash + radix sort (on the configured interval), density
// estimation, the iterated constraint solve, then position integration with
// boundary handling.
func (s *Simulation) Step() error {
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseGravity)
	s.gravity.Run(s.disp, s.store.Velocity)

	s.perf.StartPhase(telemetry.PhasePredict)
	s.predictor.Run(s.disp, s.store.Position, s.store.Velocity, s.store.Predicted)

	interval := s.cfg.Solver.SortInterval
	if interval < 1 {
		interval = 1
	}
	if s.tick%int64(interval) == 0 {
		s.perf.StartPhase(telemetry.PhaseHash)
		s.hasher.Run(s.disp, s.store.Predicted, s.pairs.Keys(), s.pairs.Indices())

		s.perf.StartPhase(telemetry.PhaseSort)
		s.sorter.Sort(s.disp, s.pairs)
	} else {
		s.perf.ZeroPhase(telemetry.PhaseHash)
		s.perf.ZeroPhase(telemetry.PhaseSort)
	}

	s.perf.StartPhase(telemetry.PhaseDensity)
	s.density.Run(s.disp, s.store.Predicted, s.pairs.Indices(), s.store.Density)

	s.perf.StartPhase(telemetry.PhaseConstraint)
	for i := 0; i < s.cfg.Solver.Iterations; i++ {
		s.constraint.Run(s.disp, s.store.Predicted, s.store.Density, s.pairs.Indices())
	}

	s.perf.StartPhase(telemetry.PhaseIntegrate)
	s.integrator.Run(s.disp, s.store.Position, s.store.Predicted, s.store.Velocity)

	s.tick++

	if err := s.emitTelemetry(); err != nil {
		return err
	}

	s.perf.EndTick()
	return nil
}

// emitTelemetry writes window stats and perf rows at window boundaries.
func (s *Simulation) emitTelemetry() error {
	window := s.cfg.Telemetry.StatsWindow
	if window <= 0 || s.tick%int64(window) != 0 {
		return nil
	}

	s.perf.StartPhase(telemetry.PhaseTelemetry)

	stats := telemetry.CollectWindowStats(s.store, s.tick, s.SimTime())
	if s.logStats {
		s.logger.Info("window stats", "stats", stats)
		s.logger.Info("perf", "perf", s.perf.Stats())
	}
	if err := s.output.WriteTelemetry(stats); err != nil {
		return err
	}
	return s.output.WritePerf(s.perf.Stats(), s.tick)
}

// Close stops the dispatcher workers and flushes output files.
func (s *Simulation) Close() error {
	s.disp.Stop()
	return s.output.Close()
}
