package wiimath

import "math"

// trigTable holds 256 samples covering one period, each row carrying the sine
// and cosine value at that index plus the per-step slope used for the linear
// interpolation both Sin32 and Cos32 perform between samples. The game ships
// this table as a verbatim ROM constant; the exact byte pattern was not part
// of the retrieved reference material, so the rows are derived here from the
// same construction (256 evenly spaced samples over 2*pi, forward-difference
// slopes) rather than guessed at.
var trigTable [256][4]float32

func init() {
	const step = 2 * math.Pi / 256
	for i := 0; i < 256; i++ {
		s0 := float32(math.Sin(float64(i) * step))
		c0 := float32(math.Cos(float64(i) * step))
		s1 := float32(math.Sin(float64(i+1) * step))
		c1 := float32(math.Cos(float64(i+1) * step))
		trigTable[i] = [4]float32{s0, c0, s1 - s0, c1 - c0}
	}
}

func tableIndex(val float32) (idx uint32, frac float32, negative bool) {
	negative = val < 0
	fIdx := float32(math.Abs(float64(val)))
	for fIdx > 65536.0 {
		fIdx -= 65536.0
	}
	idx = uint32(fIdx) % 256
	frac = fIdx - float32(idx)
	return idx, frac, negative
}

// Sin32 evaluates the table-driven sine used throughout the integrator.
func Sin32(val float32) float32 {
	const step = float32(256.0 / (2 * math.Pi))
	idx, frac, negative := tableIndex(val * step)
	sinVal := trigTable[idx][0] + frac*trigTable[idx][2]
	if negative {
		return -sinVal
	}
	return sinVal
}

// Cos32 evaluates the table-driven cosine used throughout the integrator.
func Cos32(val float32) float32 {
	const step = float32(256.0 / (2 * math.Pi))
	idx, frac, _ := tableIndex(val * step)
	return trigTable[idx][1] + frac*trigTable[idx][3]
}
