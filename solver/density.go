package solver

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/silt/compute"
)

// forEachCandidate visits the neighbor-candidate set derived from the sorted
// index order: the whole array when it fits the sample cap, otherwise a
// deterministic stride sample of maxNeighbors entries. The stride sample
// approximates a neighborhood without an exact spatial cutoff search, which
// bounds the per-particle cost at the price of neighbor recall.
func forEachCandidate(sorted []uint32, maxNeighbors int, fn func(j uint32)) {
	n := len(sorted)
	if n <= maxNeighbors {
		for _, j := range sorted {
			fn(j)
		}
		return
	}
	step := n / maxNeighbors
	for k := 0; k < maxNeighbors; k++ {
		fn(sorted[k*step])
	}
}

// DensityEstimator evaluates SPH density per particle with a Poly6 kernel
// over the sorted-order candidate set.
type DensityEstimator struct {
	Mass         float32
	HSq          float32 // Smoothing radius squared
	Poly6Norm    float32 // Poly6 normalization factor
	MaxNeighbors int
}

// NewDensityEstimator precomputes the kernel factor for smoothing radius h.
func NewDensityEstimator(mass float32, h float64, maxNeighbors int) DensityEstimator {
	return DensityEstimator{
		Mass:         mass,
		HSq:          float32(h * h),
		Poly6Norm:    Poly6Factor(h),
		MaxNeighbors: maxNeighbors,
	}
}

// Run overwrites density[i] for every particle with
// Σ_j mass · Poly6(|pos_i − pos_j|², h²) over the candidate set.
func (e DensityEstimator) Run(d *compute.Dispatcher, positions []mgl32.Vec3, sorted []uint32, density []float32) {
	d.ForEach(len(positions), func(i int) {
		pi := positions[i]
		var rho float32
		forEachCandidate(sorted, e.MaxNeighbors, func(j uint32) {
			r := pi.Sub(positions[j])
			rho += e.Mass * Poly6(r.Dot(r), e.HSq, e.Poly6Norm)
		})
		density[i] = rho
	})
}
