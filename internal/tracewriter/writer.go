package tracewriter

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"hanachan/internal/physics"
	"hanachan/internal/rkrd"
	"hanachan/internal/vecmath"
)

// Manifest describes a trace bundle's file layout so tooling can locate
// its artefacts without guessing extensions.
type Manifest struct {
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
	EventsPath  string `json:"events_path"`
	FramesPath  string `json:"frames_path"`
	WordsPerRow int    `json:"words_per_row"`
}

// desyncRecord is the JSON shape written, one per line, to events.jsonl.sz.
type desyncRecord struct {
	Frame int      `json:"frame"`
	Field string   `json:"field"`
	Got   [4]int64 `json:"got"`
	Want  [4]int64 `json:"want"`
}

// Writer streams a simulation run's frames and desync events to a
// compressed trace bundle directory.
type Writer struct {
	mu          sync.Mutex
	dir         string
	now         func() time.Time
	eventFile   *os.File
	eventStream *snappy.Writer
	frameFile   *os.File
	frameStream *zstd.Encoder
	frameCount  int
	input       string
	reference   string
	started     time.Time
}

// NewWriter creates root/<input>-<timestamp>/ and opens its compressed
// sinks. clock defaults to time.Now when nil.
func NewWriter(root, inputPath, referencePath string, clock func() time.Time) (*Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("tracewriter: root directory must be provided")
	}
	if clock == nil {
		clock = time.Now
	}
	started := clock().UTC()
	folder := fmt.Sprintf("%s-%s", filepath.Base(inputPath), started.Format("20060102T150405Z"))
	dir := filepath.Join(root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	eventsPath := filepath.Join(dir, "events.jsonl.sz")
	framesPath := filepath.Join(dir, "frames.bin.zst")

	eventFile, err := os.Create(eventsPath)
	if err != nil {
		return nil, err
	}
	eventStream := snappy.NewBufferedWriter(eventFile)

	frameFile, err := os.Create(framesPath)
	if err != nil {
		eventFile.Close()
		return nil, err
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		eventStream.Close()
		eventFile.Close()
		frameFile.Close()
		return nil, err
	}

	manifest := Manifest{
		Version:     1,
		CreatedAt:   started.Format(time.RFC3339Nano),
		EventsPath:  "events.jsonl.sz",
		FramesPath:  "frames.bin.zst",
		WordsPerRow: 27,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		frameStream.Close()
		frameFile.Close()
		eventStream.Close()
		eventFile.Close()
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644); err != nil {
		frameStream.Close()
		frameFile.Close()
		eventStream.Close()
		eventFile.Close()
		return nil, err
	}

	return &Writer{
		dir:         dir,
		now:         clock,
		eventFile:   eventFile,
		eventStream: eventStream,
		frameFile:   frameFile,
		frameStream: frameStream,
		input:       inputPath,
		reference:   referencePath,
		started:     started,
	}, nil
}

// Directory returns the bundle's directory path.
func (w *Writer) Directory() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// AppendFrame encodes frame in .rkrd's 27-big-endian-word layout, prefixes
// it with the little-endian frame index, and writes it to the zstd stream.
func (w *Writer) AppendFrame(index int, frame rkrd.Frame) error {
	if w == nil {
		return fmt.Errorf("tracewriter: writer not initialised")
	}
	row := encodeFrame(frame)
	record := make([]byte, 8+len(row))
	binary.LittleEndian.PutUint64(record[0:8], uint64(index))
	copy(record[8:], row)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.frameStream.Write(record); err != nil {
		return err
	}
	w.frameCount++
	return nil
}

// AppendDesync writes one JSON event line per reported mismatch.
func (w *Writer) AppendDesync(e *physics.DesyncError) error {
	if w == nil {
		return fmt.Errorf("tracewriter: writer not initialised")
	}
	if e == nil {
		return nil
	}
	record := desyncRecord{Frame: e.Frame, Field: e.Field}
	for i := 0; i < 4; i++ {
		record.Got[i] = int64(e.Got[i])
		record.Want[i] = int64(e.Want[i])
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.eventStream.Write(line); err != nil {
		return err
	}
	if _, err := w.eventStream.Write([]byte("\n")); err != nil {
		return err
	}
	return w.eventStream.Flush()
}

// Close writes header.json, then flushes and closes every sink.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	header := Header{
		SchemaVersion: HeaderSchemaVersion,
		InputPath:     w.input,
		ReferencePath: w.reference,
		FrameCount:    w.frameCount,
		StartedAt:     w.started.Format(time.RFC3339Nano),
		FilePointer:   "manifest.json",
	}
	record(WriteHeader(filepath.Join(w.dir, "header.json"), header))
	record(w.eventStream.Flush())
	record(w.eventStream.Close())
	record(w.eventFile.Close())
	record(w.frameStream.Close())
	record(w.frameFile.Close())
	return firstErr
}

// encodeFrame renders frame as .rkrd's big-endian 27-uint32 word layout:
// dir, pos, speed0, speed1_norm, speed, rot_vec0, rot_vec2, rot, rot2.
func encodeFrame(f rkrd.Frame) []byte {
	buf := make([]byte, 27*4)
	w := &beWriter{buf: buf}
	w.vec3(f.Dir)
	w.vec3(f.Pos)
	w.vec3(f.Speed0)
	w.f32(f.Speed1Norm)
	w.vec3(f.Speed)
	w.vec3(f.RotVec0)
	w.vec3(f.RotVec2)
	w.quat(f.Rot)
	w.quat(f.Rot2)
	return buf
}

type beWriter struct {
	buf []byte
	pos int
}

func (w *beWriter) u32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[w.pos:w.pos+4], v)
	w.pos += 4
}

func (w *beWriter) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *beWriter) vec3(v vecmath.Vec3) {
	w.f32(v.X)
	w.f32(v.Y)
	w.f32(v.Z)
}

func (w *beWriter) quat(q vecmath.Quat) {
	w.f32(q.X)
	w.f32(q.Y)
	w.f32(q.Z)
	w.f32(q.W)
}
