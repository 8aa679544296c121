// Package physics implements the per-frame player/wheel integrator: the
// bit-exact replay core. Every step below is numbered to match the
// update order the original enumerates, since that order is itself part
// of the contract (it determines the float sum graph).
package physics

import (
	"hanachan/internal/bsp"
	"hanachan/internal/vecmath"
)

const (
	raceStartFrame  = 172
	miniTurboFrame  = 411
	wheelieMaxRot   = 0.07
	turnRotZLimit   = 0.6
	degToRad        = 3.14159265 / 180.0
	handleTiltDeg   = -25.0
	speed1TiltDeg   = 0.5
)

// Wheel is the runtime state of one contact wheel.
type Wheel struct {
	Idx  int
	Spec bsp.Wheel
	Pos  vecmath.Vec3
	Down float32
}

// Player holds all mutable physics state advanced by Update.
type Player struct {
	BSP    bsp.BSP
	Inputs []uint16 // frame-indexed packed input records, rkg-frame-relative

	Pos                vecmath.Vec3
	Dir, DirDiff       vecmath.Vec3
	Top, NextTop       vecmath.Vec3
	Ground             bool
	Speed0             vecmath.Vec3
	Speed1             vecmath.Vec3
	Speed1Norm         float32
	Speed              vecmath.Vec3
	SoftSpeedLimit     float32
	RotVec0            vecmath.Vec3
	RotVec2            vecmath.Vec3
	NormalRotVec       vecmath.Vec3
	NormalAcceleration float32
	Turn, TurnRotZ     float32
	Wheelie            bool
	WheelieFrame       int
	WheelieRot         float32
	WheelieRotDec      float32
	StartBoostCharge   float32
	MtBoost            int
	StandstillBoostRot float32
	InvInertiaTensor   vecmath.Vec3
	Rot, Rot2          vecmath.Quat
	Wheels             [2]Wheel
}

// New builds the initial Flame Runner player state: hardcoded starting
// position/rotation, inertia tensor composed from the BSP's two
// cuboids, and one runtime Wheel per BSP wheel spec.
func New(inputs []uint16, spec bsp.BSP) *Player {
	p := &Player{
		BSP:              spec,
		Inputs:           inputs,
		Pos:              bsp.InitialPos(),
		Top:              vecmath.Vec3{Y: 1},
		Rot:              bsp.InitialRot(),
		Rot2:             bsp.InitialRot(),
		SoftSpeedLimit:   bsp.BaseSpeed,
		InvInertiaTensor: inertiaTensor(spec.Cuboids),
	}
	for i := range p.Wheels {
		p.Wheels[i] = newWheel(i, spec.Wheels[i])
	}
	return p
}

// newWheel reproduces the front-wheel initial-position bug the design
// notes call out explicitly: pos_rel is down*slack_y along the local
// "down" direction with no handle transform applied, even for wheel 0.
func newWheel(idx int, spec bsp.Wheel) Wheel {
	posRel := vecmath.Vec3{Y: -1}.Scale(spec.SlackY)
	return Wheel{
		Idx:  idx,
		Spec: spec,
		Pos:  spec.TopmostPos.Add(posRel),
		Down: spec.SlackY,
	}
}

// inertiaTensor composes the two BSP cuboids (masses 1/12 and 1) into a
// diagonal inverse-inertia vector using the standard solid-cuboid moment
// of inertia formula; the original's exact composition code was not part
// of the retrieved corpus, so this is authored from the documented
// "two cuboids, masses 1/12 and 1" contract rather than transcribed.
func inertiaTensor(cuboids [2]vecmath.Vec3) vecmath.Vec3 {
	masses := [2]float32{1.0 / 12.0, 1.0}
	var ixx, iyy, izz float32
	for i, d := range cuboids {
		m := masses[i]
		ixx += m * (d.Y*d.Y + d.Z*d.Z) / 12
		iyy += m * (d.X*d.X + d.Z*d.Z) / 12
		izz += m * (d.X*d.X + d.Y*d.Y) / 12
	}
	return vecmath.Vec3{X: 1 / ixx, Y: 1 / iyy, Z: 1 / izz}
}

func decodeInput(packed uint16) (accelerate, brake, item bool, trick uint16, stick uint16) {
	buttons := packed & 0x1f
	trick = (packed >> 5) & 0x7
	stick = (packed >> 8) & 0xff
	item = buttons&0x1 != 0
	brake = buttons&0x2 != 0
	accelerate = buttons&0x4 != 0
	return
}

func (p *Player) playerMat() vecmath.Mat34 {
	return vecmath.FromQuatAndPos(p.Rot2, p.Pos)
}

// Update advances the player by one frame, in the exact step order the
// design notes require: every reordering changes the float sum graph.
func (p *Player) Update(frame int) {
	racing := frame >= raceStartFrame

	var accelerate bool
	var trick, stick uint16
	if racing {
		idx := frame - raceStartFrame
		if idx < len(p.Inputs) {
			accelerate, _, _, trick, stick = decodeInput(p.Inputs[idx])
		}
	}

	//2.- Start-boost charge.
	if racing {
		if accelerate {
			p.StartBoostCharge += 0.02 - (0.02-0.002)*p.StartBoostCharge
		} else {
			p.StartBoostCharge *= 0.96
		}
	}

	//3.- Mini-turbo trigger: scripted placeholder, no triggering mechanic.
	if frame == miniTurboFrame {
		p.MtBoost = 70
	}

	//4.- Wheelie state machine.
	if racing {
		if trick != 0 {
			p.Wheelie = true
		}
		if p.Wheelie {
			p.WheelieFrame++
			ratio := p.Speed1Norm / bsp.BaseSpeed
			if p.WheelieFrame > 180 || (p.WheelieFrame >= 15 && ratio < 0.3) {
				p.Wheelie = false
				p.WheelieFrame = 0
			} else {
				p.WheelieRot = minF32(p.WheelieRot+0.01, wheelieMaxRot)
			}
		}
		if !p.Wheelie && p.WheelieRot > 0 {
			p.WheelieRotDec -= 0.001
			p.WheelieRot += p.WheelieRotDec
			if p.WheelieRot < 0 {
				p.WheelieRot = 0
			}
		}
	}

	//5.- Steering roll.
	var stickNorm float32
	if racing {
		stickNorm = (float32(stick) - 7) / 7
		var sign float32
		switch {
		case stickNorm < -0.2 && !p.Wheelie:
			p.TurnRotZ -= 0.08
			sign = 1
		case stickNorm <= 0.2 || p.Wheelie:
			p.TurnRotZ *= 0.9
			sign = 0
		default:
			p.TurnRotZ += 0.08
			sign = -1
		}
		clamped := clampF32(p.TurnRotZ, -turnRotZLimit, turnRotZLimit)
		clampTriggered := clamped != p.TurnRotZ
		p.TurnRotZ = clamped
		if !clampTriggered && sign != 0 {
			mat := p.playerMat()
			col0 := vecmath.Vec3{X: mat.E00, Y: mat.E10, Z: mat.E20}
			p.Speed0 = p.Speed0.Add(col0.Scale(sign))
		}
	}

	//6.- Direction smoothing.
	right := p.Rot.RotateVec3(vecmath.Vec3{X: 1})
	nextDir := right.Cross(p.Top).Normalize().PerpInPlane(p.Top)
	diff := nextDir.Sub(p.Dir)
	if diff.SqNorm() <= vecmath.Epsilon {
		p.Dir = nextDir
		p.DirDiff = vecmath.Vec3{}
	} else {
		diff = p.DirDiff.Add(diff.Scale(0.7))
		p.Dir = p.Dir.Add(diff).Normalize()
		p.DirDiff = diff.Scale(0.1)
	}

	//7.- Turn smoothing, only once racing has fully started.
	if frame >= miniTurboFrame {
		p.Turn = 0.88*(-stickNorm) + 0.12*p.Turn
	}

	//8.- Top update.
	if p.Ground {
		p.Top = p.NextTop.Normalize()
	} else {
		p.Top = vecmath.Vec3{Y: 1}
	}

	//9.- Speed0 flattening, only before the mini-turbo frame.
	if frame < miniTurboFrame {
		p.Speed0 = p.Speed0.RejUnit(p.Top)
	}

	//10.- Gravity.
	p.Speed0.Y += p.NormalAcceleration - 1.3
	p.NormalAcceleration = 0

	//11.- Speed0 decay.
	p.Speed0 = p.Speed0.Scale(0.998)

	//12.- Forward-plane rejection.
	forward := p.Rot.RotateVec3(vecmath.Vec3{Z: 1})
	forward.Y = 0
	if forward.SqNorm() > vecmath.Epsilon {
		p.Speed0 = p.Speed0.RejUnit(forward.Normalize())
	}

	//13.- Speed1_norm decay.
	lastSpeed1Norm := p.Speed1Norm
	if p.MtBoost == 0 {
		const decayBase float32 = 0.9924
		p.Speed1Norm *= decayBase + (1-decayBase)*(1-absF32(p.Turn))
	}

	//14.- Soft-limit assembly.
	nextLimit := float32(1.0)
	if p.MtBoost != 0 {
		p.Speed1Norm += 3
		nextLimit = 1.2
		p.MtBoost--
	}
	if p.Wheelie {
		nextLimit += 0.15
	}
	nextLimit *= bsp.BaseSpeed
	p.SoftSpeedLimit -= 3
	p.SoftSpeedLimit = maxF32(p.SoftSpeedLimit, nextLimit)
	p.Speed1Norm = minF32(p.Speed1Norm, p.SoftSpeedLimit)

	//15.- Speed1 vector.
	speed1Dir := p.Dir.PerpInPlane(p.Top)
	rotAxis := p.Top.Cross(p.Dir)
	tilted := vecmath.FromAxisAngle(rotAxis, speed1TiltDeg*degToRad).MulVec3(speed1Dir)
	p.Speed1 = tilted.Scale(p.Speed1Norm)

	//16.- Translate: the normalize-then-rescale round trip is load-bearing.
	speedSum := p.Speed0.Add(p.Speed1)
	speedNorm := speedSum.Norm()
	p.Speed = speedSum.Normalize().Scale(speedNorm)
	p.Pos = p.Pos.Add(p.Speed)

	//17.- Angular-velocity assembly.
	if p.Wheelie {
		p.RotVec0.X *= 0.9
	}
	p.RotVec0 = p.RotVec0.Scale(0.98)
	a := p.InvInertiaTensor.Mul(p.NormalRotVec)
	b := p.InvInertiaTensor.Mul(p.NormalRotVec.Add(a))
	p.NormalRotVec = a.Add(b).Scale(0.5)
	p.RotVec0 = p.RotVec0.Add(p.NormalRotVec)
	p.RotVec0.Z = 0
	p.NormalRotVec = vecmath.Vec3{}

	//18.- Auxiliary angular velocity rot_vec2.
	var rotVec2 vecmath.Vec3
	dotDirUp := p.Dir.Dot(vecmath.Vec3{Y: 1})
	rotVec2.X = -p.WheelieRot * (1 - absF32(dotDirUp))
	wheelieFactor := float32(1)
	if p.Wheelie {
		wheelieFactor = 0.2
	}
	rotVec2.Y = 0.0108 * p.Turn * wheelieFactor
	if !racing {
		p.StandstillBoostRot = -0.015 * p.StartBoostCharge
	} else {
		delta := clampF32(p.Speed1Norm-lastSpeed1Norm, -3, 3)
		p.StandstillBoostRot += 0.2 * (-delta*0.15*0.08 - p.StandstillBoostRot)
	}
	rotVec2.X += p.StandstillBoostRot
	rotVec2.Z += 0.05 * p.TurnRotZ
	p.RotVec2 = rotVec2

	//19.- Rotation integration.
	lastRot := p.Rot
	rotVec := p.RotVec0.Scale(p.BSP.RotSpeed).Add(rotVec2)
	if rotVec.SqNorm() > vecmath.Epsilon {
		p.Rot = p.Rot.Add(p.Rot.MulVec3(rotVec).Scale(0.5)).Normalize()
	}

	//20.- Top re-alignment: rebuild a fresh orthonormal basis from rot and
	// top rather than reusing p.Top as-is; the round trip through
	// cross/normalize is not bit-identical to the stored vector.
	basisForward := p.Rot.RotateVec3(vecmath.Vec3{Z: 1})
	basisRight := p.Top.Cross(basisForward)
	basisForward = basisRight.Cross(p.Top).Normalize()
	basisRight = p.Top.Cross(basisForward)
	topFromBasis := basisForward.Cross(basisRight).Normalize()

	rotTop := p.Rot.RotateVec3(vecmath.Vec3{Y: 1})
	if topFromBasis.Dot(rotTop) < 0.9999 {
		corrective := vecmath.FromVectors(rotTop, topFromBasis)
		p.Rot = vecmath.Slerp(p.Rot, corrective.Mul(p.Rot), 0.1)
	}
	p.Rot = p.Rot.Normalize()

	//21.- rot2 rebuild: a faithful re-normalization step.
	p.Rot2 = vecmath.Identity.Mul(p.Rot).Mul(vecmath.Identity).Normalize()

	//22.- Reset and run wheels.
	p.Ground = false
	p.NextTop = vecmath.Vec3{}
	for i := range p.Wheels {
		p.updateWheel(&p.Wheels[i], lastRot, frame)
	}
}

func minF32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clampF32(v, lo, hi float32) float32 {
	return maxF32(lo, minF32(v, hi))
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
