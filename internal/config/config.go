// Package config resolves the CLI's runtime tunables from HANACHAN_*
// environment variables and command-line flags, accumulating validation
// problems instead of failing on the first bad field.
package config

import (
	"flag"
	"fmt"
	"strings"
)

const (
	// DefaultLogLevel controls verbosity for the CLI's structured logs.
	DefaultLogLevel = "info"
	// DefaultLogFormat selects the structured log encoding.
	DefaultLogFormat = "json"
)

// Config captures all runtime tunables for the replay simulator.
type Config struct {
	InputPath      string
	ReferencePath  string
	TraceOutputDir string
	LiveStreamAddr string
	LogLevel       string
	LogFormat      string
}

// Load parses args (excluding the program name) into a Config, applying
// HANACHAN_* environment variables first and letting CLI flags override
// them. It collects every invalid field in the returned problems slice
// (nil when there are none) rather than failing fast, so they can all be
// reported at once.
func Load(args []string, getenv func(string) string) (*Config, []string, error) {
	fs := flag.NewFlagSet("hanachan", flag.ContinueOnError)

	traceDir := fs.String("trace-dir", getenv("HANACHAN_TRACE_DIR"), "write a compressed trace bundle under this directory")
	listen := fs.String("listen", getenv("HANACHAN_LISTEN"), "address for the live websocket stream (e.g. :8787), empty disables it")
	logLevel := fs.String("log-level", getString(getenv("HANACHAN_LOG_LEVEL"), DefaultLogLevel), "debug|info|warn|error")
	logFormat := fs.String("log-format", getString(getenv("HANACHAN_LOG_FORMAT"), DefaultLogFormat), "json|text")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg := &Config{
		TraceOutputDir: strings.TrimSpace(*traceDir),
		LiveStreamAddr: strings.TrimSpace(*listen),
		LogLevel:       strings.ToLower(strings.TrimSpace(*logLevel)),
		LogFormat:      strings.ToLower(strings.TrimSpace(*logFormat)),
	}

	var problems []string

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("-log-level must be debug|info|warn|error, got %q", cfg.LogLevel))
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("-log-format must be json|text, got %q", cfg.LogFormat))
	}

	positional := fs.Args()
	switch len(positional) {
	case 2:
		cfg.InputPath = positional[0]
		cfg.ReferencePath = positional[1]
	default:
		problems = append(problems, fmt.Sprintf("expected exactly 2 positional arguments (input.rkg reference.rkrd), got %d", len(positional)))
	}

	return cfg, problems, nil
}

func getString(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
