package vecmath

import (
	"math"

	"hanachan/internal/wiimath"
)

// Quat is a rotation quaternion stored as (x, y, z, w) with w the scalar
// part, kept near unit length by explicit Normalize calls at the call
// sites that require it.
type Quat struct {
	X, Y, Z, W float32
}

// Identity is the zero-rotation quaternion.
var Identity = Quat{0, 0, 0, 1}

func (q Quat) Add(o Quat) Quat {
	return Quat{q.X + o.X, q.Y + o.Y, q.Z + o.Z, q.W + o.W}
}

func (q Quat) Scale(s float32) Quat {
	return Quat{q.X * s, q.Y * s, q.Z * s, q.W * s}
}

func (q Quat) Dot(o Quat) float32 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

func (q Quat) SqNorm() float32 {
	return q.Dot(q)
}

func (q Quat) Normalize() Quat {
	sq := q.SqNorm()
	if sq <= epsilon {
		return q
	}
	inv := 1.0 / wiimath.Sqrt32(sq)
	return q.Scale(inv)
}

// invert negates the vector part, keeping w: the conjugate of a unit
// quaternion is its inverse.
func (q Quat) invert() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// Mul is the full Hamilton product q * o.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// mulFromVec3 multiplies q by a pure quaternion built from v (w=0),
// keeping the full four-component result. This is its own 3-term
// formula, not a specialization of Mul: the term ordering here
// ((A-B)+C per component) does not agree bit-for-bit with feeding
// Quat{v.X, v.Y, v.Z, 0} through the general Hamilton product.
func (q Quat) mulFromVec3(v Vec3) Quat {
	return Quat{
		X: q.Y*v.Z - q.Z*v.Y + q.W*v.X,
		Y: q.Z*v.X - q.X*v.Z + q.W*v.Y,
		Z: q.X*v.Y - q.Y*v.X + q.W*v.Z,
		W: -(q.X*v.X + q.Y*v.Y + q.Z*v.Z),
	}
}

// mulToVec3 computes the full Hamilton product of q0 and q1 and returns
// only the vector part, discarding w.
func mulToVec3(q0, q1 Quat) Vec3 {
	r := q0.Mul(q1)
	return Vec3{r.X, r.Y, r.Z}
}

// MulVec3 is the dedicated quaternion-times-vec3 product used by the
// rotation integration step: treats v as a pure quaternion and keeps the
// full result, matching the original's quat_mul_vec naming.
func (q Quat) MulVec3(v Vec3) Quat {
	return q.mulFromVec3(v)
}

// RotateVec3 rotates v by q: q * v * conjugate(q), vector part only.
func (q Quat) RotateVec3(v Vec3) Vec3 {
	return mulToVec3(q.mulFromVec3(v), q.invert())
}

// InvRotateVec3 rotates v by the inverse of q.
func (q Quat) InvRotateVec3(v Vec3) Vec3 {
	return mulToVec3(q.invert().mulFromVec3(v), q)
}

// FromVectors builds the quaternion rotating unit vector from onto unit
// vector to. Returns Identity when the vectors are (near-)opposite, per
// the epsilon guard on the scalar s.
func FromVectors(from, to Vec3) Quat {
	s := wiimath.Sqrt32(2 * (from.Dot(to) + 1))
	if s <= epsilon {
		return Identity
	}
	axis := from.Cross(to).Scale(1.0 / s)
	return Quat{axis.X, axis.Y, axis.Z, s * 0.5}
}

// Slerp interpolates between q0 and q1 by t, falling back to a linear
// blend when the angle between them is too small for the table-driven
// sine to resolve reliably. The result is intentionally not
// renormalized; callers that need a unit result must normalize it
// themselves, matching the original contract.
func Slerp(q0, q1 Quat, t float32) Quat {
	dot := q0.Dot(q1)
	clamped := dot
	if clamped > 1 {
		clamped = 1
	} else if clamped < -1 {
		clamped = -1
	}

	angle := float32(math.Acos(float64(abs32(clamped))))
	sinAngle := wiimath.Sin32(angle)

	var s, tPrime float32
	if abs32(sinAngle) >= 1e-5 {
		s = wiimath.Sin32((1-t)*angle) / sinAngle
		tPrime = wiimath.Sin32(t*angle) / sinAngle
	} else {
		s = 1 - t
		tPrime = t
	}

	if dot < 0 {
		tPrime = -tPrime
	}

	return q0.Scale(s).Add(q1.Scale(tPrime))
}
