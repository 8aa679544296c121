// Command hanachan replays a recorded Flame Runner ghost input against a
// reference physics dump and reports the first bit-exact divergence, if
// any, between the simulator's computed state and the reference.
package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"hanachan/internal/bsp"
	"hanachan/internal/config"
	"hanachan/internal/livestream"
	"hanachan/internal/logging"
	"hanachan/internal/physics"
	"hanachan/internal/rkg"
	"hanachan/internal/rkrd"
	"hanachan/internal/tracewriter"
	"hanachan/internal/vecmath"
)

func main() {
	os.Exit(run(os.Args[1:], os.Getenv))
}

func run(args []string, getenv func(string) string) int {
	cfg, problems, err := config.Load(args, getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse flags: %v\n", err)
		return 1
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, p)
		}
		return 1
	}

	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize structured logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	_, inputs, err := rkg.Load(cfg.InputPath)
	if err != nil {
		logger.Error("failed to load input ghost", logging.Error(err), logging.String("path", cfg.InputPath))
		return 1
	}
	referenceFrames, err := rkrd.Load(cfg.ReferencePath)
	if err != nil {
		logger.Error("failed to load reference dump", logging.Error(err), logging.String("path", cfg.ReferencePath))
		return 1
	}

	var trace *tracewriter.Writer
	if cfg.TraceOutputDir != "" {
		trace, err = tracewriter.NewWriter(cfg.TraceOutputDir, cfg.InputPath, cfg.ReferencePath, time.Now)
		if err != nil {
			logger.Error("failed to open trace bundle", logging.Error(err))
			return 1
		}
		defer func() {
			if err := trace.Close(); err != nil {
				logger.Warn("failed to close trace bundle", logging.Error(err))
			}
		}()
	}

	var stream *livestream.Stream
	if cfg.LiveStreamAddr != "" {
		stream = livestream.NewStream(0)
		server := livestream.NewServer(cfg.LiveStreamAddr, stream, logger)
		go func() {
			if err := server.ListenAndServe(); err != nil {
				logger.Warn("livestream server stopped", logging.Error(err))
			}
		}()
		defer func() { _ = server.Close() }()
		logger.Info("livestream listening", logging.String("addr", cfg.LiveStreamAddr))
	}

	player := physics.New(inputs, bsp.FlameRunner())

	frameCount := len(inputs) + 172
	if len(referenceFrames) < frameCount {
		frameCount = len(referenceFrames)
	}

	for frame := 0; frame < frameCount; frame++ {
		player.Update(frame)

		if trace != nil {
			if err := trace.AppendFrame(frame, frameFromPlayer(player)); err != nil {
				logger.Warn("failed to append trace frame", logging.Error(err))
			}
		}

		desync := compareFrame(player, referenceFrames[frame])
		if desync != nil {
			desync.Frame = frame
		}
		if stream != nil {
			event := livestream.FrameEvent{Frame: frame}
			if desync != nil {
				event.Desync = true
				event.Field = desync.Field
				event.Got = desync.Got
				event.Want = desync.Want
			}
			stream.Publish(event)
		}
		if desync == nil {
			continue
		}

		if trace != nil {
			if err := trace.AppendDesync(desync); err != nil {
				logger.Warn("failed to append desync event", logging.Error(err))
			}
		}
		printDesyncReport(desync)
		return 0
	}

	logger.Info("replay matched reference dump", logging.Int("frames", frameCount))
	return 0
}

// compareFrame checks player's current state against ref in the field
// order the comparison is specified in, returning the first mismatch.
func compareFrame(p *physics.Player, ref rkrd.Frame) *physics.DesyncError {
	checks := []struct {
		field     string
		got, want [4]uint32
	}{
		{"dir", bitsVec3(p.Dir), bitsVec3(ref.Dir)},
		{"pos", bitsVec3(p.Pos), bitsVec3(ref.Pos)},
		{"speed0", bitsVec3(p.Speed0), bitsVec3(ref.Speed0)},
		{"speed", bitsVec3(p.Speed), bitsVec3(ref.Speed)},
		{"speed1_norm", bitsScalar(p.Speed1Norm), bitsScalar(ref.Speed1Norm)},
		{"rot_vec0", bitsVec3(p.RotVec0), bitsVec3(ref.RotVec0)},
		{"rot", bitsQuat(p.Rot), bitsQuat(ref.Rot)},
		{"rot2", bitsQuat(p.Rot2), bitsQuat(ref.Rot2)},
	}
	for _, c := range checks {
		if c.got != c.want {
			return &physics.DesyncError{Field: c.field, Got: c.got, Want: c.want}
		}
	}
	return nil
}

func printDesyncReport(e *physics.DesyncError) {
	fmt.Printf("%s %d\n", e.Field, e.Frame)
	for i := 0; i < 4; i++ {
		if e.Got[i] == 0 && e.Want[i] == 0 && i >= 3 {
			continue
		}
		gotF := math.Float32frombits(e.Got[i])
		wantF := math.Float32frombits(e.Want[i])
		fmt.Printf("  got  %v 0x%08x\n", gotF, e.Got[i])
		fmt.Printf("  want %v 0x%08x\n", wantF, e.Want[i])
	}
}

func bitsVec3(v vecmath.Vec3) [4]uint32 {
	return [4]uint32{math.Float32bits(v.X), math.Float32bits(v.Y), math.Float32bits(v.Z), 0}
}

func bitsQuat(q vecmath.Quat) [4]uint32 {
	return [4]uint32{math.Float32bits(q.X), math.Float32bits(q.Y), math.Float32bits(q.Z), math.Float32bits(q.W)}
}

func bitsScalar(f float32) [4]uint32 {
	return [4]uint32{math.Float32bits(f), 0, 0, 0}
}

// frameFromPlayer renders player's current state into the same 27-word
// shape internal/rkrd.Frame uses, for the trace bundle writer.
func frameFromPlayer(p *physics.Player) rkrd.Frame {
	return rkrd.Frame{
		Dir:        p.Dir,
		Pos:        p.Pos,
		Speed0:     p.Speed0,
		Speed1Norm: p.Speed1Norm,
		Speed:      p.Speed,
		RotVec0:    p.RotVec0,
		RotVec2:    p.RotVec2,
		Rot:        p.Rot,
		Rot2:       p.Rot2,
	}
}
