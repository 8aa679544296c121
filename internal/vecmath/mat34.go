package vecmath

import "hanachan/internal/wiimath"

// Mat34 is a row-major 3x4 transform; the unstated fourth row is always
// (0, 0, 0, 1). Each row's first three entries are the rotation part,
// the fourth is translation.
type Mat34 struct {
	E00, E01, E02, E03 float32
	E10, E11, E12, E13 float32
	E20, E21, E22, E23 float32
}

func (m Mat34) row(i int) Vec4 {
	switch i {
	case 0:
		return Vec4{m.E00, m.E01, m.E02, m.E03}
	case 1:
		return Vec4{m.E10, m.E11, m.E12, m.E13}
	default:
		return Vec4{m.E20, m.E21, m.E22, m.E23}
	}
}

// FromAnglesAndPos composes a rotation from XYZ Euler angles (radians,
// table-driven sin/cos) and sets the translation column to pos.
func FromAnglesAndPos(angles Vec3, pos Vec3) Mat34 {
	sx, cx := wiimath.Sin32(angles.X), wiimath.Cos32(angles.X)
	sy, cy := wiimath.Sin32(angles.Y), wiimath.Cos32(angles.Y)
	sz, cz := wiimath.Sin32(angles.Z), wiimath.Cos32(angles.Z)

	return Mat34{
		E00: cy * cz, E01: sx*sy*cz - cx*sz, E02: cx*sy*cz + sx*sz, E03: pos.X,
		E10: cy * sz, E11: sx*sy*sz + cx*cz, E12: cx*sy*sz - sx*cz, E13: pos.Y,
		E20: -sy, E21: sx * cy, E22: cx * cy, E23: pos.Z,
	}
}

// FromQuatAndPos builds the standard rotation matrix for unit quaternion q
// and sets the translation column to pos.
func FromQuatAndPos(q Quat, pos Vec3) Mat34 {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	return Mat34{
		E00: 1 - 2*(yy+zz), E01: 2 * (xy - wz), E02: 2 * (xz + wy), E03: pos.X,
		E10: 2 * (xy + wz), E11: 1 - 2*(xx+zz), E12: 2 * (yz - wx), E13: pos.Y,
		E20: 2 * (xz - wy), E21: 2 * (yz + wx), E22: 1 - 2*(xx+yy), E23: pos.Z,
	}
}

// FromAxisAngle builds a pure rotation (zero translation) about axis by
// angle, using the Rodrigues construction with table-driven sin/cos. Not
// present in the retrieved reference sources; authored directly from the
// axis-angle rotation the speed1 steering tilt requires. axis is assumed unit length, matching every call
// site in this codebase.
func FromAxisAngle(axis Vec3, angle float32) Mat34 {
	s, c := wiimath.Sin32(angle), wiimath.Cos32(angle)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z

	return Mat34{
		E00: t*x*x + c, E01: t*x*y - s*z, E02: t*x*z + s*y, E03: 0,
		E10: t*x*y + s*z, E11: t*y*y + c, E12: t*y*z - s*x, E13: 0,
		E20: t*x*z - s*y, E21: t*y*z + s*x, E22: t*z*z + c, E23: 0,
	}
}

// FromDiag builds a pure scaling matrix with d on the diagonal and zero
// translation.
func FromDiag(d Vec3) Mat34 {
	return Mat34{
		E00: d.X, E11: d.Y, E22: d.Z,
	}
}

// Transpose swaps the 3x3 rotation part and zeros the position column,
// since a translation has no meaningful transpose.
func (m Mat34) Transpose() Mat34 {
	return Mat34{
		E00: m.E00, E01: m.E10, E02: m.E20, E03: 0,
		E10: m.E01, E11: m.E11, E12: m.E21, E13: 0,
		E20: m.E02, E21: m.E12, E22: m.E22, E23: 0,
	}
}

// col returns column c of the right-hand operand padded with the
// implicit fourth row: 0 for columns 0-2, 1 for column 3.
func (m Mat34) col(c int) Vec4 {
	var v0, v1, v2 float32
	switch c {
	case 0:
		v0, v1, v2 = m.E00, m.E10, m.E20
	case 1:
		v0, v1, v2 = m.E01, m.E11, m.E21
	case 2:
		v0, v1, v2 = m.E02, m.E12, m.E22
	default:
		v0, v1, v2 = m.E03, m.E13, m.E23
	}
	w := float32(0)
	if c == 3 {
		w = 1
	}
	return Vec4{v0, v1, v2, w}
}

// mulEntry computes one output element: the first product term in f32,
// every subsequent term widened to f64 before accumulating, narrowed
// back to f32 only at the end.
func mulEntry(rowVals Vec4, colVals Vec4) float32 {
	rv := [4]float32{rowVals.X, rowVals.Y, rowVals.Z, rowVals.W}
	cv := [4]float32{colVals.X, colVals.Y, colVals.Z, colVals.W}

	acc := float64(rv[0] * cv[0])
	for k := 1; k < 4; k++ {
		acc = float64(rv[k])*float64(cv[k]) + acc
	}
	return float32(acc)
}

// Mul multiplies a by b; b's implicit fourth row is (0,0,0,1).
func (a Mat34) Mul(b Mat34) Mat34 {
	var out Mat34
	entries := [3][4]*float32{
		{&out.E00, &out.E01, &out.E02, &out.E03},
		{&out.E10, &out.E11, &out.E12, &out.E13},
		{&out.E20, &out.E21, &out.E22, &out.E23},
	}
	for r := 0; r < 3; r++ {
		rowVals := a.row(r)
		for c := 0; c < 4; c++ {
			*entries[r][c] = mulEntry(rowVals, b.col(c))
		}
	}
	return out
}

// MulVec3 transforms v by m, treating v as a homogeneous point with
// implicit w=1. Parenthesization matches the original exactly:
// ((row.x*v.x) + (f64)row.z*v.z) + (row.y*v.y + row.w).
func (m Mat34) MulVec3(v Vec3) Vec3 {
	return Vec3{
		mulVec3Row(m.row(0), v),
		mulVec3Row(m.row(1), v),
		mulVec3Row(m.row(2), v),
	}
}

// MulDir transforms v by m's rotation part only, ignoring translation:
// the direction-vector counterpart of MulVec3, used for surface normals
// and "down" vectors that must not pick up a position offset.
func (m Mat34) MulDir(v Vec3) Vec3 {
	row0, row1, row2 := m.row(0), m.row(1), m.row(2)
	row0.W, row1.W, row2.W = 0, 0, 0
	return Vec3{
		mulVec3Row(row0, v),
		mulVec3Row(row1, v),
		mulVec3Row(row2, v),
	}
}

func mulVec3Row(row Vec4, v Vec3) float32 {
	tmp0 := row.X * v.X
	tmp0 = float32(float64(row.Z)*float64(v.Z) + float64(tmp0))
	tmp1 := row.Y*v.Y + row.W
	return tmp0 + tmp1
}
