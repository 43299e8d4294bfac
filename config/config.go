// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	World     WorldConfig     `yaml:"world"`
	Particles ParticlesConfig `yaml:"particles"`
	Solver    SolverConfig    `yaml:"solver"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Vec3Config holds a 3-component vector in the config file.
type Vec3Config struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// PhysicsConfig holds the per-step physical parameters.
type PhysicsConfig struct {
	DT                float64    `yaml:"dt"`                 // Fixed timestep in seconds
	Gravity           Vec3Config `yaml:"gravity"`            // Gravitational acceleration
	RestDensity       float64    `yaml:"rest_density"`       // Target fluid density (kg/m^3)
	SmoothingRadius   float64    `yaml:"smoothing_radius"`   // SPH kernel support radius h
	RelaxationFactor  float64    `yaml:"relaxation_factor"`  // PBD correction scale
	ConstraintEpsilon float64    `yaml:"constraint_epsilon"` // Deadband/regularization for the density constraint
	GridCellSize      float64    `yaml:"grid_cell_size"`     // Spatial hash cell edge length
	MaxNeighbors      int        `yaml:"max_neighbors"`      // Neighbor sample cap per particle
}

// WorldConfig holds the simulation boundary.
type WorldConfig struct {
	AABBMin Vec3Config `yaml:"aabb_min"`
	AABBMax Vec3Config `yaml:"aabb_max"`
}

// ParticlesConfig holds particle creation parameters.
type ParticlesConfig struct {
	Count   int     `yaml:"count"`   // Number of particles
	Mass    float64 `yaml:"mass"`    // Per-particle mass (uniform)
	Spacing float64 `yaml:"spacing"` // Lattice spacing for the initial spawn block
	Jitter  float64 `yaml:"jitter"`  // Random offset applied to spawn positions, as a fraction of spacing
}

// SolverConfig holds driver-level solver parameters.
type SolverConfig struct {
	Iterations   int `yaml:"iterations"`    // Constraint solve iterations per step
	SortInterval int `yaml:"sort_interval"` // Steps between hash+sort rebuilds (1 = every step)
	Workers      int `yaml:"workers"`       // Dispatcher worker count (0 = GOMAXPROCS)
}

// TelemetryConfig holds telemetry settings.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Ticks between stats windows (0 = disabled)
	PerfWindow  int `yaml:"perf_window"`  // Rolling window size for perf averaging
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32          float32    // Physics.DT as float32
	Gravity       mgl32.Vec3 // Gravity as a vector
	AABBMin       mgl32.Vec3 // World bounds
	AABBMax       mgl32.Vec3
	H32           float32 // Smoothing radius as float32
	GridCellSize  float32 // Cell size as float32
	RestDensity   float32
	Relaxation    float32
	Epsilon       float32
	Mass32        float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the kernels cannot run with.
func (c *Config) validate() error {
	if c.Physics.SmoothingRadius <= 0 {
		return fmt.Errorf("config: smoothing_radius must be positive, got %v", c.Physics.SmoothingRadius)
	}
	if c.Physics.GridCellSize <= 0 {
		return fmt.Errorf("config: grid_cell_size must be positive, got %v", c.Physics.GridCellSize)
	}
	if c.Physics.RestDensity <= 0 {
		return fmt.Errorf("config: rest_density must be positive, got %v", c.Physics.RestDensity)
	}
	if c.Physics.MaxNeighbors <= 0 {
		return fmt.Errorf("config: max_neighbors must be positive, got %d", c.Physics.MaxNeighbors)
	}
	if c.Particles.Count < 0 {
		return fmt.Errorf("config: particle count must not be negative, got %d", c.Particles.Count)
	}
	if c.Solver.Iterations < 1 {
		return fmt.Errorf("config: solver iterations must be at least 1, got %d", c.Solver.Iterations)
	}
	if c.Solver.SortInterval < 1 {
		return fmt.Errorf("config: sort_interval must be at least 1, got %d", c.Solver.SortInterval)
	}
	min, max := c.World.AABBMin, c.World.AABBMax
	if min.X >= max.X || min.Y >= max.Y || min.Z >= max.Z {
		return fmt.Errorf("config: aabb_min must be strictly below aabb_max on every axis")
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.Gravity = c.Physics.Gravity.Vec3()
	c.Derived.AABBMin = c.World.AABBMin.Vec3()
	c.Derived.AABBMax = c.World.AABBMax.Vec3()
	c.Derived.H32 = float32(c.Physics.SmoothingRadius)
	c.Derived.GridCellSize = float32(c.Physics.GridCellSize)
	c.Derived.RestDensity = float32(c.Physics.RestDensity)
	c.Derived.Relaxation = float32(c.Physics.RelaxationFactor)
	c.Derived.Epsilon = float32(c.Physics.ConstraintEpsilon)
	c.Derived.Mass32 = float32(c.Particles.Mass)
}

// Vec3 converts the config vector to an mgl32 vector.
func (v Vec3Config) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
