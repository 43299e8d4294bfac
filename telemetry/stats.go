package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/silt/particle"
)

// WindowStats holds aggregated fluid-state statistics for a stats window.
type WindowStats struct {
	WindowEndTick int64   `csv:"window_end"`
	SimTimeSec    float64 `csv:"sim_time"`

	ParticleCount int `csv:"particles"`

	// Density distribution relative to the configured rest density
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityMin  float64 `csv:"density_min"`
	DensityMax  float64 `csv:"density_max"`

	// Kinematics
	MaxSpeed      float64 `csv:"max_speed"`
	KineticEnergy float64 `csv:"kinetic_energy"`
}

// CollectWindowStats samples the particle state at a window boundary.
func CollectWindowStats(store *particle.Store, tick int64, simTime float64) WindowStats {
	ws := WindowStats{
		WindowEndTick: tick,
		SimTimeSec:    simTime,
		ParticleCount: store.Count(),
	}
	if store.Count() == 0 {
		return ws
	}

	densities := make([]float64, store.Count())
	for i, rho := range store.Density {
		densities[i] = float64(rho)
	}
	ws.DensityMean = stat.Mean(densities, nil)
	ws.DensityStd = stat.StdDev(densities, nil)
	ws.DensityMin = floats.Min(densities)
	ws.DensityMax = floats.Max(densities)

	halfMass := 0.5 * float64(store.Mass)
	for _, v := range store.Velocity {
		speedSq := float64(v.Dot(v))
		ws.KineticEnergy += halfMass * speedSq
		if speed := float64(v.Len()); speed > ws.MaxSpeed {
			ws.MaxSpeed = speed
		}
	}

	return ws
}

// LogValue lets WindowStats be logged as a structured slog group.
func (ws WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", ws.WindowEndTick),
		slog.Float64("sim_time", ws.SimTimeSec),
		slog.Int("particles", ws.ParticleCount),
		slog.Float64("density_mean", ws.DensityMean),
		slog.Float64("density_std", ws.DensityStd),
		slog.Float64("density_min", ws.DensityMin),
		slog.Float64("density_max", ws.DensityMax),
		slog.Float64("max_speed", ws.MaxSpeed),
		slog.Float64("kinetic_energy", ws.KineticEnergy),
	)
}
