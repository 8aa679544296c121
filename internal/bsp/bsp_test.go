package bsp

import "testing"

func TestFlameRunnerConstants(t *testing.T) {
	b := FlameRunner()
	if b.InitialPosY != 62 {
		t.Errorf("InitialPosY = %v, want 62", b.InitialPosY)
	}
	if b.Wheels[0].SlackY != 55 || b.Wheels[1].SlackY != 30 {
		t.Errorf("wheel slack_y = %v/%v, want 55/30", b.Wheels[0].SlackY, b.Wheels[1].SlackY)
	}
	if b.RotSpeed != 0.12 {
		t.Errorf("RotSpeed = %v, want 0.12", b.RotSpeed)
	}
}

func TestInitialPos(t *testing.T) {
	pos := InitialPos()
	if pos.X != -14720 || pos.Y != 1062 || pos.Z != -2954.655 {
		t.Errorf("InitialPos = %+v, want (-14720, 1062, -2954.655)", pos)
	}
}

func TestBaseSpeed(t *testing.T) {
	if BaseSpeed != 84.01 {
		t.Errorf("BaseSpeed = %v, want 84.01", BaseSpeed)
	}
}
