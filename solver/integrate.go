package solver

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/silt/compute"
)

// GravityIntegrator adds gravitational acceleration to every velocity.
type GravityIntegrator struct {
	Gravity mgl32.Vec3
	DT      float32
}

// Run applies velocity[i] += gravity · dt.
func (g GravityIntegrator) Run(d *compute.Dispatcher, velocity []mgl32.Vec3) {
	dv := g.Gravity.Mul(g.DT)
	d.ForEach(len(velocity), func(i int) {
		velocity[i] = velocity[i].Add(dv)
	})
}

// PositionPredictor seeds the working positions for the constraint solve
// with a tentative explicit step.
type PositionPredictor struct {
	DT float32
}

// Run applies predicted[i] = position[i] + velocity[i] · dt.
func (p PositionPredictor) Run(d *compute.Dispatcher, position, velocity, predicted []mgl32.Vec3) {
	d.ForEach(len(position), func(i int) {
		predicted[i] = position[i].Add(velocity[i].Mul(p.DT))
	})
}

// PositionIntegrator reconciles corrected predictions back into the
// authoritative state and resolves boundary collisions against the AABB.
type PositionIntegrator struct {
	DT      float32
	AABBMin mgl32.Vec3
	AABBMax mgl32.Vec3
}

// Run derives velocity from the net displacement the solve produced,
// advances position onto the corrected prediction, then clamps each axis to
// the AABB and reflects that axis's velocity on contact. With dt ≤ 0 the
// displacement derivation is skipped and only the boundary clamp runs.
func (u PositionIntegrator) Run(d *compute.Dispatcher, position, predicted, velocity []mgl32.Vec3) {
	d.ForEach(len(position), func(i int) {
		if u.DT > 0 {
			velocity[i] = predicted[i].Sub(position[i]).Mul(1 / u.DT)
			position[i] = position[i].Add(velocity[i].Mul(u.DT))
		}

		for axis := 0; axis < 3; axis++ {
			if position[i][axis] < u.AABBMin[axis] {
				position[i][axis] = u.AABBMin[axis]
				velocity[i][axis] = -velocity[i][axis]
			} else if position[i][axis] > u.AABBMax[axis] {
				position[i][axis] = u.AABBMax[axis]
				velocity[i][axis] = -velocity[i][axis]
			}
		}
		predicted[i] = position[i]
	})
}
