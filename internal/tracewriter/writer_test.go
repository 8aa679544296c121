package tracewriter

import (
	"testing"
	"time"

	"hanachan/internal/physics"
	"hanachan/internal/rkrd"
	"hanachan/internal/vecmath"
)

func TestWriterRoundTripsFramesAndEvents(t *testing.T) {
	tmp := t.TempDir()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := func() time.Time { return base }

	w, err := NewWriter(tmp, "input.rkg", "reference.rkrd", clock)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	frame := rkrd.Frame{
		Dir:        vecmath.Vec3{X: 1, Y: 0, Z: 0},
		Pos:        vecmath.Vec3{X: 10, Y: 20, Z: 30},
		Speed0:     vecmath.Vec3{X: 1, Y: 2, Z: 3},
		Speed1Norm: 5.5,
		Speed:      vecmath.Vec3{X: 4, Y: 5, Z: 6},
		RotVec0:    vecmath.Vec3{X: 0.1, Y: 0.2, Z: 0.3},
		RotVec2:    vecmath.Vec3{X: 0.4, Y: 0.5, Z: 0.6},
		Rot:        vecmath.Quat{X: 0, Y: 0, Z: 0, W: 1},
		Rot2:       vecmath.Quat{X: 0, Y: 0, Z: 0, W: 1},
	}
	if err := w.AppendFrame(0, frame); err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}
	if err := w.AppendFrame(1, frame); err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}

	desync := &physics.DesyncError{Frame: 1, Field: "pos", Got: [4]uint32{1, 2, 3, 0}, Want: [4]uint32{1, 2, 4, 0}}
	if err := w.AppendDesync(desync); err != nil {
		t.Fatalf("AppendDesync: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	bundle, err := Load(w.Directory())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if bundle.Header.InputPath != "input.rkg" || bundle.Header.FrameCount != 2 {
		t.Fatalf("unexpected header: %+v", bundle.Header)
	}
	if len(bundle.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(bundle.Frames))
	}
	if bundle.Frames[1].Index != 1 || bundle.Frames[1].Pos != frame.Pos {
		t.Fatalf("unexpected frame 1: %+v", bundle.Frames[1])
	}
	if len(bundle.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bundle.Events))
	}
	if bundle.Events[0].Frame != 1 || bundle.Events[0].Field != "pos" {
		t.Fatalf("unexpected event: %+v", bundle.Events[0])
	}
	if bundle.Events[0].Want[2] != 4 {
		t.Fatalf("unexpected event want bits: %+v", bundle.Events[0].Want)
	}
}
