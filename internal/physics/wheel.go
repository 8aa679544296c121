package physics

import "hanachan/internal/vecmath"

// wheelHandleAngle and wheelHandlePos are wheel 0's extra local
// transform (the "handle"), applied on top of the shared player matrix
// before any of the seven wheel-update steps run.
var (
	wheelHandleAngle = vecmath.Vec3{X: handleTiltDeg * degToRad}
	wheelHandlePos   = vecmath.Vec3{X: 0, Y: 51, Z: 44}
)

// wheelMat returns the world transform the wheel at idx is positioned
// and oriented against: the shared player matrix, with wheel 0 further
// offset by its fixed handle transform.
func (p *Player) wheelMat(idx int) vecmath.Mat34 {
	m := p.playerMat()
	if idx == 0 {
		m = m.Mul(vecmath.FromAnglesAndPos(wheelHandleAngle, wheelHandlePos))
	}
	return m
}

// updateWheel runs the seven-step per-wheel update and, on ground
// contact, the impulse/friction resolver, exactly in the order given.
// lastRot is the player's rotation as of frame entry, before rotation
// integration; it is used only for the step-3 sphere-position term's
// player matrix (built fresh, with no handle transform, even for wheel
// 0). The impulse resolver itself uses the player's current,
// already-integrated p.Rot, since steps 19-21 update p.Rot before the
// wheel loop runs. Positioning uses the freshly rebuilt p.Rot2, since
// the wheel has to sit where the body ended up this frame.
func (p *Player) updateWheel(w *Wheel, lastRot vecmath.Quat, frame int) {
	mat := p.wheelMat(w.Idx)

	//1.
	topmost := mat.MulVec3(w.Spec.TopmostPos)
	downDir := mat.MulDir(vecmath.Vec3{Y: -1})

	//2.
	downBefore := w.Down
	w.Down = minF32(w.Down+5, w.Spec.SlackY)
	lastPos := w.Pos
	w.Pos = topmost.Add(downDir.Scale(w.Down))

	//3.
	playerMat := vecmath.FromQuatAndPos(lastRot, p.Pos)
	col0 := vecmath.Vec3{X: playerMat.E00, Y: playerMat.E10, Z: playerMat.E20}
	sphere := w.Pos.
		Add(downDir.Scale(w.Spec.WheelRadius - w.Spec.SphereRadius)).
		Add(col0.Scale(p.TurnRotZ * w.Spec.SphereRadius * 0.3))

	//4.
	radius := w.Spec.SphereRadius
	if frame == 0 {
		radius = 10
	}
	d := 1000 - sphere.Y + radius
	collided := d > 0
	if collided {
		p.Ground = true
		p.NextTop = p.NextTop.Add(vecmath.Vec3{Y: 1})
		w.Pos.Y += d
	}

	//5.
	w.Down = downDir.Dot(w.Pos.Sub(topmost))
	w.Pos = topmost.Add(downDir.Scale(w.Down))

	//6.
	if collided {
		p.resolveWheelImpulse(w, sphere, lastPos)
	}

	//7.
	if collided {
		deltaDown := w.Down - downBefore
		springMag := -(w.Spec.DistanceSuspension*(w.Spec.SlackY-w.Down) + w.Spec.SpeedSuspension*(-deltaDown))
		spring := downDir.Scale(springMag)
		if p.Speed0.Y < 5 {
			p.NormalAcceleration += spring.Y
		}
		springBody := p.Rot2.InvRotateVec3(spring)
		topmostRel := topmost.Sub(p.Pos)
		topmostRelBody := p.Rot2.InvRotateVec3(topmostRel)
		cross := topmostRelBody.Cross(springBody)
		cross.Y = 0
		if p.WheelieRot != 0 {
			cross.X = 0
		}
		if !p.Wheelie {
			p.NormalRotVec = p.NormalRotVec.Add(cross)
		}
	}
}

// effectiveMass applies rot * diag(invI) * rotᵀ to v: q's rotation takes
// the role of the orthogonal matrix, so conjugating by its inverse
// rotation stands in for the transpose.
func effectiveMass(q vecmath.Quat, invI vecmath.Vec3, v vecmath.Vec3) vecmath.Vec3 {
	local := q.InvRotateVec3(v)
	scaled := invI.Mul(local)
	return q.RotateVec3(scaled)
}

func clampMagnitude(v vecmath.Vec3, limit float32) vecmath.Vec3 {
	n := v.Norm()
	if n > limit && n > 0 {
		return v.Scale(limit / n)
	}
	return v
}

// resolveWheelImpulse applies the normal/friction impulse for a wheel in
// contact with the ground plane, per the impulse resolver. Uses the
// player's current (already rotation-integrated) orientation, not the
// pre-integration rotation passed into updateWheel for the step-3
// sphere-position term.
func (p *Player) resolveWheelImpulse(w *Wheel, sphere, lastPos vecmath.Vec3) {
	n := vecmath.Vec3{Y: 1}

	vRel := w.Pos.Sub(lastPos).Sub(p.Speed1)
	v2 := vRel.Add(vecmath.Vec3{Y: -13})
	if v2.Dot(n) >= 0 {
		return
	}

	sphereRel := sphere.Sub(p.Pos)
	c1 := effectiveMass(p.Rot, p.InvInertiaTensor, sphereRel.Cross(n))
	c2 := c1.Cross(sphereRel)
	j := -(v2.Dot(n)) / (1 + n.Dot(c2))

	t := n.Cross(vRel.Scale(-1)).Cross(n)
	if t.SqNorm() <= vecmath.Epsilon {
		return
	}
	tHat := t.Normalize()
	tangSpeed := minF32(vRel.Dot(tHat), 0)
	imp := tHat.Scale(j * tangSpeed / -(v2.Dot(n)))

	forward := p.Rot2.RotateVec3(vecmath.Vec3{Z: 1})
	impPar := imp.ProjUnit(forward)
	impPerp := imp.Sub(impPar)

	absJ := absF32(j)
	impPar = clampMagnitude(impPar, 0.1*absJ)
	// FIXME down: the original clamps the perpendicular impulse against
	// the post-collision wheel.down rather than some other magnitude;
	// reproduced as-is per the open question.
	impPerp = clampMagnitude(impPerp, w.Down*absJ)
	sum := impPar.Add(impPerp)

	p.Speed0 = p.Speed0.Add(sum.RejUnit(p.Dir))

	if !p.Wheelie && p.WheelieRot == 0 {
		tau := effectiveMass(p.Rot, p.InvInertiaTensor, sphereRel.Cross(sum))
		tauBody := p.Rot.InvRotateVec3(tau)
		tauBody.Y = 0
		p.RotVec0 = p.RotVec0.Add(tauBody)
	}
}
