package physics

import (
	"testing"

	"hanachan/internal/bsp"
	"hanachan/internal/vecmath"
)

func TestUpdateWheelSettlesOnGround(t *testing.T) {
	p := New(nil, bsp.FlameRunner())
	// Drop the player straight down near the ground plane so both wheels
	// make contact within a handful of frames.
	p.Pos.Y = 1000 + 60
	for f := 0; f < 60; f++ {
		p.Update(f)
	}
	if !p.Ground {
		t.Fatalf("expected player to be grounded after falling toward y=1000")
	}
	for i, w := range p.Wheels {
		if w.Down < 0 || w.Down > w.Spec.SlackY {
			t.Errorf("wheel %d: down = %v out of [0, %v]", i, w.Down, w.Spec.SlackY)
		}
	}
}

func TestClampMagnitudeLeavesSmallVectorsUnchanged(t *testing.T) {
	v := vecmath.Vec3{X: 1, Y: 0, Z: 0}
	got := clampMagnitude(v, 5)
	if got != v {
		t.Fatalf("clampMagnitude(%+v, 5) = %+v, want unchanged", v, got)
	}
}

func TestClampMagnitudeShrinksLargeVectors(t *testing.T) {
	v := vecmath.Vec3{X: 10, Y: 0, Z: 0}
	got := clampMagnitude(v, 2)
	if got.Norm() > 2+1e-4 {
		t.Fatalf("clampMagnitude(%+v, 2) norm = %v, want <= 2", v, got.Norm())
	}
}

func TestEffectiveMassIdentityRotationIsPlainScale(t *testing.T) {
	invI := vecmath.Vec3{X: 2, Y: 3, Z: 4}
	v := vecmath.Vec3{X: 1, Y: 1, Z: 1}
	got := effectiveMass(vecmath.Identity, invI, v)
	want := invI.Mul(v)
	if got != want {
		t.Fatalf("effectiveMass(identity, ...) = %+v, want %+v", got, want)
	}
}
