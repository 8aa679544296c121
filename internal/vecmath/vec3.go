// Package vecmath implements the vector, quaternion and matrix primitives
// the physics core is built from. Every operation follows the exact
// contract described for it, including the epsilon guards and
// parenthesization that make results bit-reproducible against the
// original platform.
package vecmath

import "hanachan/internal/wiimath"

// epsilon mirrors the platform's FLT_EPSILON used throughout the vector
// guards (vec3_norm, vec3_normalize, vec3_perp_in_plane callers).
const epsilon = 1.1920929e-7

// Epsilon is FLT_EPSILON, exported for callers (the player/wheel update)
// that apply the same guard to their own squared-norm comparisons.
const Epsilon = epsilon

// Vec3 is a plain value type; all operations return new values.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Mul(o Vec3) Vec3 {
	return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z}
}

func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) SqNorm() float32 {
	return v.Dot(v)
}

// Norm returns 0 when the squared norm does not exceed epsilon, otherwise
// the faithful hardware sqrt of it.
func (v Vec3) Norm() float32 {
	sq := v.SqNorm()
	if sq <= epsilon {
		return 0
	}
	return wiimath.Sqrt32(sq)
}

// Normalize returns v unchanged when its squared norm does not exceed
// epsilon, otherwise v scaled by 1/sqrt(sq_norm).
func (v Vec3) Normalize() Vec3 {
	sq := v.SqNorm()
	if sq <= epsilon {
		return v
	}
	return v.Scale(1.0 / wiimath.Sqrt32(sq))
}

// ProjUnit projects v0 onto unit vector v1.
func (v0 Vec3) ProjUnit(v1 Vec3) Vec3 {
	return v1.Scale(v0.Dot(v1))
}

// RejUnit rejects v0 from unit vector v1: v0 - v1*dot(v0,v1).
func (v0 Vec3) RejUnit(v1 Vec3) Vec3 {
	return v0.Sub(v1.Scale(v0.Dot(v1)))
}

// PerpInPlane returns the component of v0 perpendicular to v1 within the
// plane spanned by both, normalized, or the zero vector when v0 and v1 are exactly
// colinear (dot magnitude exactly 1.0).
func (v0 Vec3) PerpInPlane(v1 Vec3) Vec3 {
	if abs32(v1.Dot(v0)) == 1.0 {
		return Vec3{}
	}
	return v1.Cross(v0).Cross(v1).Normalize()
}

func (v Vec3) Equals(o Vec3) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
