package rkg

import (
	"encoding/binary"
	"testing"
)

// packBits writes fields MSB-first starting at bit 0 of out. fields are
// (value, width) pairs.
func packBits(out []byte, fields [][2]uint32) {
	bitPos := 0
	for _, f := range fields {
		value, width := f[0], int(f[1])
		for i := width - 1; i >= 0; i-- {
			bit := (value >> uint(i)) & 1
			byteIdx := bitPos / 8
			bitIdx := 7 - (bitPos % 8)
			if bit == 1 {
				out[byteIdx] |= 1 << uint(bitIdx)
			}
			bitPos++
		}
	}
}

func validHeaderBytes() []byte {
	buf := make([]byte, minHeaderLength)
	copy(buf, "RKGD")
	packBits(buf[headerBitfieldOffset:], [][2]uint32{
		{1, 7},            // minutes
		{23, 7},            // seconds
		{456, 10},          // milliseconds
		{expectedTrack, 6}, // track
		{expectedVehicle, 6},
		{expectedCharacter, 6},
		{25, 7},  // year
		{6, 4},   // month
		{15, 5},  // day
		{0, 4},   // controller
		{1, 1},   // compressed
		{3, 7},   // ghost type
		{0, 1},   // drift auto
	})
	binary.BigEndian.PutUint32(buf[compressedSizeOffset:], 0)
	return buf
}

func TestParseHeaderValid(t *testing.T) {
	h, err := ParseHeader(validHeaderBytes())
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Minutes != 1 || h.Seconds != 23 || h.Milliseconds != 456 {
		t.Errorf("time = %d:%d.%d, want 1:23.456", h.Minutes, h.Seconds, h.Milliseconds)
	}
	if h.Track != expectedTrack || h.Vehicle != expectedVehicle || h.Character != expectedCharacter {
		t.Errorf("track/vehicle/character = %x/%x/%x", h.Track, h.Vehicle, h.Character)
	}
	if !h.Compressed || h.AutomaticDrift {
		t.Errorf("compressed=%v automaticDrift=%v, want true/false", h.Compressed, h.AutomaticDrift)
	}
}

func TestParseHeaderBadMagic(t *testing.T) {
	buf := validHeaderBytes()
	copy(buf, "XXXX")
	if _, err := ParseHeader(buf); err != ErrBadMagic {
		t.Fatalf("ParseHeader with bad magic = %v, want ErrBadMagic", err)
	}
}

func TestParseHeaderRejectsWrongVehicle(t *testing.T) {
	buf := validHeaderBytes()
	for i := headerBitfieldOffset; i < compressedSizeOffset; i++ {
		buf[i] = 0
	}
	packBits(buf[headerBitfieldOffset:], [][2]uint32{
		{1, 7}, {23, 7}, {456, 10}, {expectedTrack, 6}, {0x01, 6},
	})
	if _, err := ParseHeader(buf); err == nil {
		t.Fatal("ParseHeader accepted an unsupported vehicle")
	}
}

func TestParseInputPayloadExpandsRuns(t *testing.T) {
	payload := []byte{
		0, 1, // one button run
		0, 1, // one direction run
		0, 1, // one trick run
		0, 0, // reserved
		0x05, 3, // button value 5, 3 frames
		7, 3, // direction value 7, 3 frames
		0x20, 0x03, // trick state 2, 3 frames
	}
	frames, err := ParseInputPayload(payload)
	if err != nil {
		t.Fatalf("ParseInputPayload: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("len(frames) = %d, want 3", len(frames))
	}
	want := uint16(5) | uint16(7)<<8 | uint16(2)<<5
	for i, f := range frames {
		if f != want {
			t.Errorf("frames[%d] = %#04x, want %#04x", i, f, want)
		}
	}
}

func TestParseInputPayloadInvalidTrickState(t *testing.T) {
	payload := []byte{
		0, 0, // no button runs
		0, 0, // no direction runs
		0, 1, // one trick run
		0, 0,
		0x81, 0x00, // state = 8 (bit 0x8 set), 256 frames
	}
	if _, err := ParseInputPayload(payload); err != ErrInvalidTrickState {
		t.Fatalf("ParseInputPayload with invalid trick state = %v, want ErrInvalidTrickState", err)
	}
}

func TestParseInputPayloadCountMismatch(t *testing.T) {
	payload := []byte{
		0, 1, // one button run
		0, 0, // no direction runs
		0, 0, // no trick runs
		0, 0,
		0x01, 5,
	}
	if _, err := ParseInputPayload(payload); err != ErrInputCountMismatch {
		t.Fatalf("ParseInputPayload with mismatched run totals = %v, want ErrInputCountMismatch", err)
	}
}
