package physics

import "fmt"

// DesyncError reports a single bit-exact mismatch between the simulator's
// computed state and the reference dump for one frame. Got/Want hold the
// raw IEEE-754 bit patterns of the diverging field's components (a Vec3
// uses the first 3, a Quat all 4), so a report can show both the decimal
// and hex form of the exact bits that differ.
type DesyncError struct {
	Frame int
	Field string
	Got   [4]uint32
	Want  [4]uint32
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("frame %d: field %q diverged: got %08x want %08x", e.Frame, e.Field, e.Got, e.Want)
}
