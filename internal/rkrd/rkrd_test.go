package rkrd

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func appendF32(buf *bytes.Buffer, v float32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	buf.Write(b[:])
}

func oneFrameDump(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("RKRD")
	var ver [4]byte
	binary.BigEndian.PutUint32(ver[:], 0)
	buf.Write(ver[:])

	vals := make([]float32, wordsPerFrame)
	for i := range vals {
		vals[i] = float32(i) + 0.5
	}
	for _, v := range vals {
		appendF32(&buf, v)
	}
	return buf.Bytes()
}

func TestParseSingleFrame(t *testing.T) {
	frames, err := Parse(oneFrameDump(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("len(frames) = %d, want 1", len(frames))
	}
	f := frames[0]
	if f.Dir.X != 0.5 || f.Dir.Y != 1.5 || f.Dir.Z != 2.5 {
		t.Errorf("Dir = %+v, want (0.5,1.5,2.5)", f.Dir)
	}
	if f.Speed1Norm != 9.5 {
		t.Errorf("Speed1Norm = %v, want 9.5", f.Speed1Norm)
	}
	if f.Rot2.W != 26.5 {
		t.Errorf("Rot2.W = %v, want 26.5", f.Rot2.W)
	}
}

func TestParseBadMagic(t *testing.T) {
	data := oneFrameDump(t)
	copy(data, "XXXX")
	if _, err := Parse(data); err != ErrBadMagic {
		t.Fatalf("Parse with bad magic = %v, want ErrBadMagic", err)
	}
}

func TestParseMisaligned(t *testing.T) {
	data := oneFrameDump(t)
	data = data[:len(data)-1]
	if _, err := Parse(data); err != ErrMisalignedFrameData {
		t.Fatalf("Parse with truncated frame = %v, want ErrMisalignedFrameData", err)
	}
}

func TestParseUnsupportedVersion(t *testing.T) {
	data := oneFrameDump(t)
	binary.BigEndian.PutUint32(data[4:8], 1)
	if _, err := Parse(data); err != ErrUnsupportedVersion {
		t.Fatalf("Parse with version 1 = %v, want ErrUnsupportedVersion", err)
	}
}
