package config

import "testing"

func emptyEnv(string) string { return "" }

func TestLoadDefaults(t *testing.T) {
	cfg, problems, err := Load([]string{"in.rkg", "ref.rkrd"}, emptyEnv)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
	if cfg.InputPath != "in.rkg" || cfg.ReferencePath != "ref.rkrd" {
		t.Fatalf("unexpected positional paths: %+v", cfg)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.LogFormat != DefaultLogFormat {
		t.Fatalf("expected default log format %q, got %q", DefaultLogFormat, cfg.LogFormat)
	}
	if cfg.TraceOutputDir != "" || cfg.LiveStreamAddr != "" {
		t.Fatalf("expected trace dir and listen addr empty by default, got %+v", cfg)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	env := map[string]string{
		"HANACHAN_TRACE_DIR": "/env/traces",
		"HANACHAN_LISTEN":    ":9999",
		"HANACHAN_LOG_LEVEL": "warn",
	}
	getenv := func(k string) string { return env[k] }

	cfg, problems, err := Load([]string{
		"-trace-dir", "/flag/traces",
		"-log-level", "debug",
		"in.rkg", "ref.rkrd",
	}, getenv)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
	if cfg.TraceOutputDir != "/flag/traces" {
		t.Fatalf("expected flag to win over env for trace dir, got %q", cfg.TraceOutputDir)
	}
	if cfg.LiveStreamAddr != ":9999" {
		t.Fatalf("expected env-sourced listen addr, got %q", cfg.LiveStreamAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected flag to win over env for log level, got %q", cfg.LogLevel)
	}
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	_, problems, err := Load([]string{"-log-level", "verbose", "in.rkg", "ref.rkrd"}, emptyEnv)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(problems) == 0 {
		t.Fatal("expected a validation problem for an invalid log level")
	}
}

func TestLoadRejectsWrongArgCount(t *testing.T) {
	_, problems, err := Load([]string{"only-one.rkg"}, emptyEnv)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(problems) == 0 {
		t.Fatal("expected a validation problem for a missing positional argument")
	}
}
