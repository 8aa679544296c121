package tracewriter

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"hanachan/internal/vecmath"
)

// DesyncEvent is a single divergence record rehydrated from a trace
// bundle's events.jsonl.sz file.
type DesyncEvent struct {
	Frame int
	Field string
	Got   [4]uint32
	Want  [4]uint32
}

// FrameRecord is a single frame rehydrated from a trace bundle's
// frames.bin.zst file, keyed by the frame index it was appended under.
type FrameRecord struct {
	Index int
	rkrdFrame
}

// rkrdFrame mirrors internal/rkrd.Frame's field set as the loader's own
// type for decoded frame records.
type rkrdFrame struct {
	Dir, Pos, Speed0           vecmath.Vec3
	Speed1Norm                 float32
	Speed, RotVec0, RotVec2    vecmath.Vec3
	Rot, Rot2                  vecmath.Quat
}

// Bundle holds every frame and desync event rehydrated from a trace
// bundle directory, in append order.
type Bundle struct {
	Header Header
	Frames []FrameRecord
	Events []DesyncEvent
}

// Load rehydrates a trace bundle rooted at dir (the directory NewWriter
// created, containing header.json/manifest.json/events.jsonl.sz/frames.bin.zst).
func Load(dir string) (*Bundle, error) {
	header, err := ReadHeader(filepath.Join(dir, "header.json"))
	if err != nil {
		return nil, fmt.Errorf("tracewriter: reading header: %w", err)
	}

	manifestData, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("tracewriter: reading manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("tracewriter: parsing manifest: %w", err)
	}

	events, err := loadEvents(filepath.Join(dir, manifest.EventsPath))
	if err != nil {
		return nil, fmt.Errorf("tracewriter: reading events: %w", err)
	}

	frames, err := loadFrames(filepath.Join(dir, manifest.FramesPath))
	if err != nil {
		return nil, fmt.Errorf("tracewriter: reading frames: %w", err)
	}

	return &Bundle{Header: header, Frames: frames, Events: events}, nil
}

func loadEvents(path string) ([]DesyncEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw, err := io.ReadAll(snappy.NewReader(file))
	if err != nil {
		return nil, err
	}

	var events []DesyncEvent
	start := 0
	for i, b := range raw {
		if b != '\n' {
			continue
		}
		line := raw[start:i]
		start = i + 1
		if len(line) == 0 {
			continue
		}
		var record desyncRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, err
		}
		var ev DesyncEvent
		ev.Frame = record.Frame
		ev.Field = record.Field
		for j := 0; j < 4; j++ {
			ev.Got[j] = uint32(record.Got[j])
			ev.Want[j] = uint32(record.Want[j])
		}
		events = append(events, ev)
	}
	return events, nil
}

func loadFrames(path string) ([]FrameRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, err
	}

	const recordLen = 8 + 27*4
	var frames []FrameRecord
	for offset := 0; offset+recordLen <= len(raw); offset += recordLen {
		index := int(binary.LittleEndian.Uint64(raw[offset : offset+8]))
		frames = append(frames, FrameRecord{
			Index:     index,
			rkrdFrame: decodeFrame(raw[offset+8 : offset+recordLen]),
		})
	}
	return frames, nil
}

func decodeFrame(row []byte) rkrdFrame {
	r := &beReader{buf: row}
	return rkrdFrame{
		Dir:        r.vec3(),
		Pos:        r.vec3(),
		Speed0:     r.vec3(),
		Speed1Norm: r.f32(),
		Speed:      r.vec3(),
		RotVec0:    r.vec3(),
		RotVec2:    r.vec3(),
		Rot:        r.quat(),
		Rot2:       r.quat(),
	}
}

type beReader struct {
	buf []byte
	pos int
}

func (r *beReader) u32() uint32 {
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v
}

func (r *beReader) f32() float32 { return math.Float32frombits(r.u32()) }

func (r *beReader) vec3() vecmath.Vec3 {
	return vecmath.Vec3{X: r.f32(), Y: r.f32(), Z: r.f32()}
}

func (r *beReader) quat() vecmath.Quat {
	return vecmath.Quat{X: r.f32(), Y: r.f32(), Z: r.f32(), W: r.f32()}
}
