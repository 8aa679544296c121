// Package bsp carries the vehicle's static physical spec: cuboid
// dimensions used for the inertia tensor, wheel geometry, and suspension
// constants. Only one vehicle, the Flame Runner, is supported.
package bsp

import "hanachan/internal/vecmath"

// Wheel is the static per-wheel spec copied into each runtime wheel.
type Wheel struct {
	DistanceSuspension float32
	SpeedSuspension    float32
	SlackY             float32
	TopmostPos         vecmath.Vec3
	WheelRadius        float32
	SphereRadius       float32
}

// BSP is the vehicle's static physical spec.
type BSP struct {
	InitialPosY float32
	Cuboids     [2]vecmath.Vec3
	RotSpeed    float32
	Wheels      [2]Wheel
}

// FlameRunner returns the hardcoded Flame Runner vehicle spec, the only
// vehicle this simulator supports.
func FlameRunner() BSP {
	return BSP{
		InitialPosY: 62,
		Cuboids: [2]vecmath.Vec3{
			{X: 90, Y: 80, Z: 140},
			{X: 0, Y: -10, Z: -40},
		},
		RotSpeed: 0.12,
		Wheels: [2]Wheel{
			{
				DistanceSuspension: 0.16,
				SpeedSuspension:    0.18,
				SlackY:             55,
				TopmostPos:         vecmath.Vec3{X: 0, Y: -40, Z: 0},
				WheelRadius:        29.5,
				SphereRadius:       43,
			},
			{
				DistanceSuspension: 0.17,
				SpeedSuspension:    0.2,
				SlackY:             30,
				TopmostPos:         vecmath.Vec3{X: 0, Y: 7, Z: -75},
				WheelRadius:        41,
				SphereRadius:       43,
			},
		},
	}
}

// InitialPos is the Flame Runner's hardcoded starting world position.
func InitialPos() vecmath.Vec3 {
	return vecmath.Vec3{X: -14720, Y: 1000 + 62, Z: -2954.655}
}

// InitialRot is the Flame Runner's hardcoded starting rotation: a 180
// degree yaw, stored as (x, y, z, w).
func InitialRot() vecmath.Quat {
	return vecmath.Quat{X: 0, Y: 1, Z: 0, W: 0}
}

// BaseSpeed centralizes the "82.95 + 1.06" literal that the original
// duplicates in two places under a "TODO stop hardcoding fr+fk" comment;
// retained verbatim per the open question in the design notes.
const BaseSpeed = float32(82.95 + 1.06)
