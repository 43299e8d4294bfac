// Package solver implements the compute kernels of the fluid pipeline:
// spatial hashing, the radix sort, SPH density estimation, the PBD density
// constraint solve, and the integrators.
package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/silt/compute"
)

// expandBits spreads the low 10 bits of v apart so that two zero bits sit
// between every original bit.
func expandBits(v uint32) uint32 {
	v &= 0x3FF
	v = (v | v<<16) & 0x030000FF
	v = (v | v<<8) & 0x0300F00F
	v = (v | v<<4) & 0x030C30C3
	v = (v | v<<2) & 0x09249249
	return v
}

// MortonCode interleaves the low 10 bits of each grid coordinate into a
// 30-bit key. Nearby cells get nearby keys, with the usual discontinuities
// at power-of-two cell boundaries.
func MortonCode(x, y, z uint32) uint32 {
	return expandBits(x) | expandBits(y)<<1 | expandBits(z)<<2
}

// SpatialHasher computes a Morton key and identity index per particle from
// quantized grid coordinates.
type SpatialHasher struct {
	GridSize float32 // Cell edge length
}

// Run overwrites keys and indices entirely: keys[i] is the Morton code of
// particle i's grid cell, indices[i] = i.
func (h SpatialHasher) Run(d *compute.Dispatcher, positions []mgl32.Vec3, keys, indices []uint32) {
	d.ForEach(len(positions), func(i int) {
		p := positions[i]
		// floor before truncation so negative coordinates land in the cell
		// below, then wrap into unsigned grid space.
		gx := uint32(int32(math.Floor(float64(p.X() / h.GridSize))))
		gy := uint32(int32(math.Floor(float64(p.Y() / h.GridSize))))
		gz := uint32(int32(math.Floor(float64(p.Z() / h.GridSize))))

		keys[i] = MortonCode(gx, gy, gz)
		indices[i] = uint32(i)
	})
}
