// Package particle holds the mutable particle state shared by every pipeline stage.
package particle

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Store holds the per-particle arrays as parallel slices of equal length.
// Every stage of the pipeline reads and writes these buffers by particle
// index; the store itself never reorders or resizes them.
type Store struct {
	Position  []mgl32.Vec3 // Authoritative world position
	Predicted []mgl32.Vec3 // Working position during the constraint solve
	Velocity  []mgl32.Vec3
	Density   []float32 // Written once per step by the density estimator
	Mass      float32   // Uniform across particles
}

// NewStore allocates particle buffers for count particles.
func NewStore(count int, mass float32) *Store {
	return &Store{
		Position:  make([]mgl32.Vec3, count),
		Predicted: make([]mgl32.Vec3, count),
		Velocity:  make([]mgl32.Vec3, count),
		Density:   make([]float32, count),
		Mass:      mass,
	}
}

// Count returns the number of particles.
func (s *Store) Count() int {
	return len(s.Position)
}

// SpawnBlock places particles on a cubic lattice starting at origin, with the
// given spacing, confined to at most nx*ny columns per layer. jitter is a
// random offset in [-jitter, jitter] * spacing per axis; pass a nil rng for a
// deterministic lattice. Velocities are zeroed and predicted positions start
// at the spawn positions.
func (s *Store) SpawnBlock(origin mgl32.Vec3, spacing float32, nx, ny int, jitter float32, rng *rand.Rand) {
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	for i := range s.Position {
		x := i % nx
		y := (i / nx) % ny
		z := i / (nx * ny)

		p := origin.Add(mgl32.Vec3{
			float32(x) * spacing,
			float32(y) * spacing,
			float32(z) * spacing,
		})
		if rng != nil && jitter > 0 {
			p = p.Add(mgl32.Vec3{
				(rng.Float32()*2 - 1) * jitter * spacing,
				(rng.Float32()*2 - 1) * jitter * spacing,
				(rng.Float32()*2 - 1) * jitter * spacing,
			})
		}

		s.Position[i] = p
		s.Predicted[i] = p
		s.Velocity[i] = mgl32.Vec3{}
		s.Density[i] = 0
	}
}

// ClampToAABB moves any position outside the box onto its surface, with the
// predicted positions following. Spawn blocks whose lattice extent overruns
// the world are pulled back in before the first step sees them.
func (s *Store) ClampToAABB(min, max mgl32.Vec3) {
	for i := range s.Position {
		for axis := 0; axis < 3; axis++ {
			if s.Position[i][axis] < min[axis] {
				s.Position[i][axis] = min[axis]
			} else if s.Position[i][axis] > max[axis] {
				s.Position[i][axis] = max[axis]
			}
		}
		s.Predicted[i] = s.Position[i]
	}
}
