package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/silt/compute"
)

// maxCorrectionScale clamps a single iteration's position correction to this
// fraction of the smoothing radius to prevent overshoot.
const maxCorrectionScale = 0.1

// ConstraintSolver projects the PBD density constraint: per particle it
// computes C = ρ/ρ₀ − 1, a Spiky-kernel constraint gradient, a Lagrange
// multiplier, and a clamped correction applied to the predicted position.
type ConstraintSolver struct {
	RestDensity  float32
	H            float32 // Smoothing radius
	SpikyNorm    float32 // Spiky gradient factor
	Epsilon      float32 // Constraint deadband and denominator regularizer
	Relaxation   float32
	MaxNeighbors int

	corrections []mgl32.Vec3 // per-particle Δp scratch, applied after the gather phase
}

// NewConstraintSolver precomputes the gradient kernel factor for radius h.
func NewConstraintSolver(restDensity float32, h float64, epsilon, relaxation float32, maxNeighbors int) *ConstraintSolver {
	return &ConstraintSolver{
		RestDensity:  restDensity,
		H:            float32(h),
		SpikyNorm:    SpikyGradFactor(h),
		Epsilon:      epsilon,
		Relaxation:   relaxation,
		MaxNeighbors: maxNeighbors,
	}
}

// Run performs one constraint iteration over predicted positions, reading the
// density snapshot produced by the estimator. Corrections are gathered into
// scratch and applied in a second dispatch so every lane reads the same
// prediction state within an iteration.
func (s *ConstraintSolver) Run(d *compute.Dispatcher, predicted []mgl32.Vec3, density []float32, sorted []uint32) {
	count := len(predicted)
	if len(s.corrections) < count {
		s.corrections = make([]mgl32.Vec3, count)
	}

	d.ForEach(count, func(i int) {
		s.corrections[i] = mgl32.Vec3{}

		c := density[i]/s.RestDensity - 1
		if abs32(c) < s.Epsilon {
			return
		}

		pi := predicted[i]
		var grad mgl32.Vec3
		var sumSq float32
		forEachCandidate(sorted, s.MaxNeighbors, func(j uint32) {
			if int(j) == i {
				return
			}
			term := SpikyGrad(pi.Sub(predicted[j]), s.H, s.SpikyNorm)
			grad = grad.Add(term)
			sumSq += term.Dot(term)
		})

		// Both the per-term squared magnitudes and the accumulated gradient
		// contribute to the λ denominator.
		denom := sumSq + grad.Dot(grad)
		var lambda float32
		if denom > s.Epsilon {
			lambda = -c / (denom + s.Epsilon)
		}

		dp := grad.Mul(s.Relaxation * lambda)
		maxCorrection := maxCorrectionScale * s.H
		if l := dp.Len(); l > maxCorrection {
			dp = dp.Mul(maxCorrection / l)
		}
		s.corrections[i] = dp
	})

	d.ForEach(count, func(i int) {
		predicted[i] = predicted[i].Add(s.corrections[i])
	})
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
