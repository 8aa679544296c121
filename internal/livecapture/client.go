// Package livecapture is a best-effort reimplementation of the original
// Dolphin MemoryWatcher companion tool: it reads an address/value text
// stream over a pluggable net.Conn and republishes each sampled frame to
// internal/livestream. It carries none of the replay core's
// bit-exactness obligations and exists purely as a convenience for
// watching a live emulator session alongside recorded replays.
package livecapture

import (
	"bufio"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"

	"hanachan/internal/livestream"
	"hanachan/internal/rkrd"
	"hanachan/internal/vecmath"
)

// addressCount mirrors the original tool's full MemoryWatcher table,
// including the two timer addresses and the floor_nor/rot_vec1 samples
// that internal/rkrd.Frame's 27-word shape does not carry.
const addressCount = 38

// addresses is the MemoryWatcher address table in sample order, taken
// verbatim from the original capture companion.
var addresses = [addressCount]string{
	"9bd730 1c",
	"9bd730 20",
	"9c18f8 20 0 10 10 44",
	"9c18f8 20 0 10 10 48",
	"9c18f8 20 0 10 10 4c",
	"9c18f8 20 0 10 10 5c",
	"9c18f8 20 0 10 10 60",
	"9c18f8 20 0 10 10 64",
	"9c18f8 20 0 24 90 4 68",
	"9c18f8 20 0 24 90 4 6c",
	"9c18f8 20 0 24 90 4 70",
	"9c18f8 20 0 24 90 4 74",
	"9c18f8 20 0 24 90 4 78",
	"9c18f8 20 0 24 90 4 7c",
	"9c18f8 20 0 10 10 20",
	"9c18f8 20 0 24 90 4 b0",
	"9c18f8 20 0 24 90 4 b4",
	"9c18f8 20 0 24 90 4 bc",
	"9c18f8 20 0 24 90 4 d4",
	"9c18f8 20 0 24 90 4 d8",
	"9c18f8 20 0 24 90 4 dc",
	"9c18f8 20 0 24 90 4 a4",
	"9c18f8 20 0 24 90 4 a8",
	"9c18f8 20 0 24 90 4 ac",
	"9c18f8 20 0 24 90 4 bc",
	"9c18f8 20 0 24 90 4 c0",
	"9c18f8 20 0 24 90 4 c4",
	"4b0",
	"4b4",
	"4b8",
	"9c18f8 20 0 24 90 4 f0",
	"9c18f8 20 0 24 90 4 f4",
	"9c18f8 20 0 24 90 4 f8",
	"9c18f8 20 0 24 90 4 fc",
	"9c18f8 20 0 24 90 4 100",
	"9c18f8 20 0 24 90 4 104",
	"9c18f8 20 0 24 90 4 108",
	"9c18f8 20 0 24 90 4 10c",
}

// Sample indices into the 38-address table for the fields internal/rkrd.Frame
// carries. floor_nor (indices 2-4), rot_vec1 (indices 24-26) and the three
// words at indices 27-29 are sampled by the original tool but have no home
// in Frame's 27-word shape, so they are read and discarded here.
const (
	idxDir     = 5
	idxPos     = 8
	idxSpeed0  = 11
	idxSpeed1  = 14
	idxRotVec2 = 15
	idxSpeed   = 18
	idxRotVec0 = 21
	idxRot     = 30
	idxRot2    = 34
)

// Client samples a running emulator's address watcher feed over conn and
// decodes each frame into an internal/rkrd.Frame.
type Client struct {
	conn net.Conn
}

// New wraps an already-connected datagram socket (a UNIX or UDP net.Conn
// bridged to a Dolphin MemoryWatcher instance).
func New(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// Run reads frames until conn is closed or an I/O error occurs, publishing
// each decoded frame to stream as a FrameEvent tagged with source=capture
// via Field. It returns the first read error encountered (io.EOF on a
// clean close).
func (c *Client) Run(stream *livestream.Stream) error {
	buf := make([]byte, 4096)
	var vals [addressCount]uint32
	var lastFrame uint32

	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			return err
		}
		if err := decodeSample(buf[:n], &vals); err != nil {
			continue
		}

		frame := (vals[0] & 0xffff) + vals[1]
		if frame <= lastFrame {
			lastFrame = frame
			continue
		}
		lastFrame = frame

		if stream != nil {
			sample := Frame(vals)
			stream.Publish(livestream.FrameEvent{
				Frame:  int(frame),
				Desync: false,
				Field:  "source=capture pos",
				Got:    positionBits(sample),
			})
		}
	}
}

// Frame decodes the most recently sampled address values into an
// internal/rkrd.Frame, matching the field subset Frame's 27-word layout
// supports.
func Frame(vals [addressCount]uint32) rkrd.Frame {
	return rkrd.Frame{
		Dir:        vec3At(vals, idxDir),
		Pos:        vec3At(vals, idxPos),
		Speed0:     vec3At(vals, idxSpeed0),
		Speed1Norm: floatBits(vals[idxSpeed1]),
		Speed:      vec3At(vals, idxSpeed),
		RotVec0:    vec3At(vals, idxRotVec0),
		RotVec2:    vec3At(vals, idxRotVec2),
		Rot:        quatAt(vals, idxRot),
		Rot2:       quatAt(vals, idxRot2),
	}
}

func vec3At(vals [addressCount]uint32, start int) vecmath.Vec3 {
	return vecmath.Vec3{
		X: floatBits(vals[start]),
		Y: floatBits(vals[start+1]),
		Z: floatBits(vals[start+2]),
	}
}

func quatAt(vals [addressCount]uint32, start int) vecmath.Quat {
	return vecmath.Quat{
		X: floatBits(vals[start]),
		Y: floatBits(vals[start+1]),
		Z: floatBits(vals[start+2]),
		W: floatBits(vals[start+3]),
	}
}

// decodeSample parses a MemoryWatcher datagram: lines alternating an
// address string and its hex value, matching the original tool's
// strncmp-against-table-then-strtol loop.
func decodeSample(raw []byte, vals *[addressCount]uint32) error {
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		addr := scanner.Text()
		idx := indexOfAddress(addr)
		if idx < 0 {
			continue
		}
		if !scanner.Scan() {
			return fmt.Errorf("livecapture: missing value line for address %q", addr)
		}
		v, err := strconv.ParseUint(strings.TrimSpace(scanner.Text()), 16, 32)
		if err != nil {
			return fmt.Errorf("livecapture: parsing value for address %q: %w", addr, err)
		}
		vals[idx] = uint32(v)
	}
	return scanner.Err()
}

func indexOfAddress(s string) int {
	for i, addr := range addresses {
		if strings.HasPrefix(s, addr) {
			return i
		}
	}
	return -1
}

func floatBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// positionBits renders a Frame's position as raw IEEE-754 bit patterns,
// matching the shape internal/livestream.FrameEvent's Got/Want fields use
// throughout the rest of the simulator so observers can diff capture
// samples against replay output with the same tooling.
func positionBits(f rkrd.Frame) [4]uint32 {
	return [4]uint32{
		math.Float32bits(f.Pos.X),
		math.Float32bits(f.Pos.Y),
		math.Float32bits(f.Pos.Z),
		0,
	}
}
