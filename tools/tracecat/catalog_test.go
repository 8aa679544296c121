package tracecat

import (
	"os"
	"path/filepath"
	"testing"

	"hanachan/internal/tracewriter"
)

func writeBundle(t *testing.T, dir, name string, frameCount int) {
	t.Helper()
	bundleDir := filepath.Join(dir, name)
	if err := os.MkdirAll(bundleDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	header := tracewriter.Header{
		SchemaVersion: tracewriter.HeaderSchemaVersion,
		InputPath:     name + ".rkg",
		ReferencePath: name + ".rkrd",
		FrameCount:    frameCount,
		StartedAt:     "2026-01-01T00:00:00Z",
		FilePointer:   "manifest.json",
	}
	if err := tracewriter.WriteHeader(filepath.Join(bundleDir, "header.json"), header); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
}

func TestListSortsByFrameCountThenPath(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "tall", 500)
	writeBundle(t, dir, "short", 10)

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Header.FrameCount != 10 || entries[1].Header.FrameCount != 500 {
		t.Fatalf("expected ascending frame count order, got %+v", entries)
	}

	payload, err := MarshalEntries(entries)
	if err != nil {
		t.Fatalf("MarshalEntries: %v", err)
	}
	if len(payload) == 0 {
		t.Fatalf("expected non-empty JSON payload")
	}
}

func TestListOnEmptyDirectoryReturnsNonNilEmptySlice(t *testing.T) {
	dir := t.TempDir()
	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries == nil {
		t.Fatal("expected a non-nil empty slice")
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}
