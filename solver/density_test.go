package solver

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/silt/compute"
)

func identityOrder(n int) []uint32 {
	sorted := make([]uint32, n)
	for i := range sorted {
		sorted[i] = uint32(i)
	}
	return sorted
}

func TestDensityIsolatedParticle(t *testing.T) {
	d := compute.NewDispatcher(1)

	e := NewDensityEstimator(0.02, 0.2, 64)
	positions := []mgl32.Vec3{{0, 0, 0}}
	density := make([]float32, 1)

	e.Run(d, positions, identityOrder(1), density)

	// Self contribution only: mass * factor * h^6
	want := 0.02 * float64(e.Poly6Norm) * math.Pow(0.2, 6)
	if math.Abs(float64(density[0])-want)/want > 1e-5 {
		t.Errorf("isolated density %v, want %v", density[0], want)
	}
}

func TestDensityPairSymmetric(t *testing.T) {
	d := compute.NewDispatcher(2)
	d.Start()
	defer d.Stop()

	e := NewDensityEstimator(0.02, 0.2, 64)
	positions := []mgl32.Vec3{{0, 0, 0}, {0.05, 0, 0}}
	density := make([]float32, 2)

	e.Run(d, positions, identityOrder(2), density)

	if density[0] != density[1] {
		t.Errorf("symmetric pair has asymmetric densities: %v vs %v", density[0], density[1])
	}

	// The pair must be denser than an isolated particle.
	single := make([]float32, 1)
	e.Run(d, positions[:1], identityOrder(1), single)
	if density[0] <= single[0] {
		t.Errorf("pair density %v not above isolated density %v", density[0], single[0])
	}
}

func TestDensityOutOfRangeNeighborIgnored(t *testing.T) {
	d := compute.NewDispatcher(1)

	e := NewDensityEstimator(0.02, 0.2, 64)
	positions := []mgl32.Vec3{{0, 0, 0}, {5, 0, 0}}
	density := make([]float32, 2)

	e.Run(d, positions, identityOrder(2), density)

	single := make([]float32, 1)
	e.Run(d, positions[:1], identityOrder(1), single)
	if density[0] != single[0] {
		t.Errorf("far neighbor changed density: %v vs %v", density[0], single[0])
	}
}

func TestDensityStrideSampling(t *testing.T) {
	d := compute.NewDispatcher(4)
	d.Start()
	defer d.Stop()

	// More particles than the sample cap forces the stride path.
	const count = 300
	maxNeighbors := 64
	positions := make([]mgl32.Vec3, count)
	for i := range positions {
		positions[i] = mgl32.Vec3{float32(i) * 0.01, 0, 0}
	}
	density := make([]float32, count)

	e := NewDensityEstimator(0.02, 0.2, maxNeighbors)
	e.Run(d, positions, identityOrder(count), density)

	for i, rho := range density {
		if rho < 0 {
			t.Fatalf("particle %d: negative density %v", i, rho)
		}
		if math.IsNaN(float64(rho)) || math.IsInf(float64(rho), 0) {
			t.Fatalf("particle %d: non-finite density %v", i, rho)
		}
	}
}

func TestForEachCandidateStrideCount(t *testing.T) {
	sorted := identityOrder(1000)

	visited := 0
	forEachCandidate(sorted, 64, func(j uint32) {
		if int(j) >= 1000 {
			t.Fatalf("candidate %d out of range", j)
		}
		visited++
	})
	if visited != 64 {
		t.Errorf("stride sampling visited %d candidates, want 64", visited)
	}

	visited = 0
	forEachCandidate(sorted[:50], 64, func(uint32) { visited++ })
	if visited != 50 {
		t.Errorf("full iteration visited %d candidates, want 50", visited)
	}
}
