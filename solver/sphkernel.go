package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Poly6Factor returns the Poly6 normalization constant 315 / (64 π h⁹).
func Poly6Factor(h float64) float32 {
	return float32(315.0 / (64.0 * math.Pi * math.Pow(h, 9)))
}

// SpikyGradFactor returns the Spiky gradient constant −45 / (π h⁶).
func SpikyGradFactor(h float64) float32 {
	return float32(-45.0 / (math.Pi * math.Pow(h, 6)))
}

// Poly6 evaluates the Poly6 smoothing kernel on a squared distance:
// factor · (h² − r²)³ for r² < h², else 0.
func Poly6(rSq, hSq, factor float32) float32 {
	if rSq >= hSq {
		return 0
	}
	d := hSq - rSq
	return factor * d * d * d
}

// SpikyGrad evaluates the Spiky kernel gradient for the offset vector r:
// factor · (h − |r|)² · r̂ for 0 < |r| < h, else the zero vector. The zero
// short-circuit guards the division for coincident particles.
func SpikyGrad(r mgl32.Vec3, h, factor float32) mgl32.Vec3 {
	distSq := r.Dot(r)
	if distSq <= 0 || distSq >= h*h {
		return mgl32.Vec3{}
	}
	dist := float32(math.Sqrt(float64(distSq)))
	w := factor * (h - dist) * (h - dist)
	return r.Mul(w / dist)
}
