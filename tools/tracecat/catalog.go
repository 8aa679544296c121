// Package tracecat walks a directory of trace bundles produced by
// internal/tracewriter and prints a sorted catalog of their headers.
package tracecat

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hanachan/internal/tracewriter"
)

// Entry captures a trace bundle's header alongside its resolved
// manifest path.
type Entry struct {
	HeaderPath string              `json:"header_path"`
	BundlePath string              `json:"bundle_path"`
	Header     tracewriter.Header `json:"header"`
}

// List walks root and returns every trace bundle header found, sorted
// by frame count then bundle path. It returns a non-nil, possibly empty
// slice when root contains no bundles.
func List(root string) ([]Entry, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("tracecat: root directory must be provided")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tracecat: root must be a directory")
	}

	entries := make([]Entry, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != "header.json" {
			return nil
		}
		header, err := tracewriter.ReadHeader(path)
		if err != nil {
			return err
		}
		bundlePath := header.FilePointer
		if !filepath.IsAbs(bundlePath) {
			bundlePath = filepath.Join(filepath.Dir(path), bundlePath)
		}
		entries = append(entries, Entry{HeaderPath: path, BundlePath: bundlePath, Header: header})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Header.FrameCount == entries[j].Header.FrameCount {
			return entries[i].BundlePath < entries[j].BundlePath
		}
		return entries[i].Header.FrameCount < entries[j].Header.FrameCount
	})
	return entries, nil
}

// MarshalEntries produces a stable, indented JSON representation of
// entries for CLI output.
func MarshalEntries(entries []Entry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}
