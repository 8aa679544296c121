package tracewriter

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanerRemovesBundlesOlderThanMaxAge(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "old-bundle")
	fresh := filepath.Join(root, "fresh-bundle")
	for _, dir := range []string{old, fresh} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "header.json"), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write header: %v", err)
		}
	}

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	oldTime := now.Add(-48 * time.Hour)
	if err := os.Chtimes(old, oldTime, oldTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	cleaner := NewCleaner(root, RetentionPolicy{MaxAge: 24 * time.Hour}, nil)
	cleaner.now = func() time.Time { return now }
	cleaner.RunOnce()

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old bundle to be removed, stat err = %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh bundle to survive: %v", err)
	}
	stats := cleaner.Stats()
	if stats.Bundles != 1 {
		t.Fatalf("expected 1 surviving bundle counted, got %d", stats.Bundles)
	}
}

func TestCleanerRemovesOldestBeyondMaxBundles(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c"} {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		modTime := now.Add(-time.Duration(i) * time.Hour)
		if err := os.Chtimes(dir, modTime, modTime); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	cleaner := NewCleaner(root, RetentionPolicy{MaxBundles: 2}, nil)
	cleaner.now = func() time.Time { return now }
	cleaner.RunOnce()

	if _, err := os.Stat(filepath.Join(root, "c")); !os.IsNotExist(err) {
		t.Fatalf("expected oldest bundle 'c' to be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "a")); err != nil {
		t.Fatalf("expected newest bundle 'a' to survive: %v", err)
	}
}
