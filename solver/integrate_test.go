package solver

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/silt/compute"
)

func TestGravityIntegrator(t *testing.T) {
	d := compute.NewDispatcher(1)

	g := GravityIntegrator{Gravity: mgl32.Vec3{0, -10, 0}, DT: 0.5}
	velocity := []mgl32.Vec3{{1, 0, 0}, {0, 2, 0}}

	g.Run(d, velocity)

	if velocity[0] != (mgl32.Vec3{1, -5, 0}) {
		t.Errorf("velocity[0] = %v", velocity[0])
	}
	if velocity[1] != (mgl32.Vec3{0, -3, 0}) {
		t.Errorf("velocity[1] = %v", velocity[1])
	}
}

func TestGravityZeroDTIsNoop(t *testing.T) {
	d := compute.NewDispatcher(1)

	g := GravityIntegrator{Gravity: mgl32.Vec3{0, -9.81, 0}, DT: 0}
	velocity := []mgl32.Vec3{{1, 2, 3}}
	g.Run(d, velocity)

	if velocity[0] != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("zero dt changed velocity: %v", velocity[0])
	}
}

func TestPositionPredictor(t *testing.T) {
	d := compute.NewDispatcher(1)

	p := PositionPredictor{DT: 0.5}
	position := []mgl32.Vec3{{1, 0, 0}}
	velocity := []mgl32.Vec3{{2, 4, 0}}
	predicted := make([]mgl32.Vec3, 1)

	p.Run(d, position, velocity, predicted)

	if predicted[0] != (mgl32.Vec3{2, 2, 0}) {
		t.Errorf("predicted = %v, want {2 2 0}", predicted[0])
	}
	if position[0] != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("predictor mutated position: %v", position[0])
	}
}

func TestPositionIntegratorAdvancesOntoPrediction(t *testing.T) {
	d := compute.NewDispatcher(1)

	u := PositionIntegrator{
		DT:      0.5,
		AABBMin: mgl32.Vec3{-10, -10, -10},
		AABBMax: mgl32.Vec3{10, 10, 10},
	}
	position := []mgl32.Vec3{{1, 1, 1}}
	predicted := []mgl32.Vec3{{2, 1, 1}}
	velocity := []mgl32.Vec3{{0, 0, 0}}

	u.Run(d, position, predicted, velocity)

	if position[0] != (mgl32.Vec3{2, 1, 1}) {
		t.Errorf("position = %v, want the corrected prediction", position[0])
	}
	// Velocity is derived from the net displacement: (2-1)/0.5 = 2.
	if velocity[0] != (mgl32.Vec3{2, 0, 0}) {
		t.Errorf("velocity = %v, want {2 0 0}", velocity[0])
	}
	if predicted[0] != position[0] {
		t.Errorf("predicted not reconciled: %v vs %v", predicted[0], position[0])
	}
}

func TestPositionIntegratorBoundaryReflection(t *testing.T) {
	d := compute.NewDispatcher(1)

	u := PositionIntegrator{
		DT:      0.5,
		AABBMin: mgl32.Vec3{-2, -2, -2},
		AABBMax: mgl32.Vec3{2, 2, 2},
	}
	// Just past the +x face, still moving outward.
	position := []mgl32.Vec3{{2.5, 0, 0}}
	predicted := []mgl32.Vec3{{3.0, 0, 0}} // position + velocity*dt
	velocity := []mgl32.Vec3{{1, 0, 0}}

	u.Run(d, position, predicted, velocity)

	if position[0].X() != 2 {
		t.Errorf("position.x = %v, want clamp to 2", position[0].X())
	}
	if velocity[0].X() != -1 {
		t.Errorf("velocity.x = %v, want reflected -1 with magnitude preserved", velocity[0].X())
	}
	if position[0].Y() != 0 || velocity[0].Y() != 0 {
		t.Errorf("untouched axes changed: pos %v vel %v", position[0], velocity[0])
	}
}

func TestPositionIntegratorReflectsEachAxisIndependently(t *testing.T) {
	d := compute.NewDispatcher(1)

	u := PositionIntegrator{
		DT:      1,
		AABBMin: mgl32.Vec3{0, 0, 0},
		AABBMax: mgl32.Vec3{1, 1, 1},
	}
	position := []mgl32.Vec3{{0.5, 0.5, 0.5}}
	predicted := []mgl32.Vec3{{1.5, -0.5, 0.75}}
	velocity := []mgl32.Vec3{{0, 0, 0}}

	u.Run(d, position, predicted, velocity)

	want := mgl32.Vec3{1, 0, 0.75}
	if position[0] != want {
		t.Errorf("position = %v, want %v", position[0], want)
	}
	if velocity[0].X() != -1 || velocity[0].Y() != 1 || velocity[0].Z() != 0.25 {
		t.Errorf("velocity = %v, want {-1 1 0.25}", velocity[0])
	}
}

func TestPositionIntegratorZeroDT(t *testing.T) {
	d := compute.NewDispatcher(1)

	u := PositionIntegrator{
		DT:      0,
		AABBMin: mgl32.Vec3{-2, -2, -2},
		AABBMax: mgl32.Vec3{2, 2, 2},
	}
	position := []mgl32.Vec3{{1, 1, 1}}
	predicted := []mgl32.Vec3{{1.5, 1, 1}} // solver drift must not leak into position
	velocity := []mgl32.Vec3{{3, 0, 0}}

	u.Run(d, position, predicted, velocity)

	if position[0] != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("zero dt moved position: %v", position[0])
	}
	if velocity[0] != (mgl32.Vec3{3, 0, 0}) {
		t.Errorf("zero dt changed velocity: %v", velocity[0])
	}
}
