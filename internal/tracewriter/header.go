// Package tracewriter persists a simulation run as a compressed trace
// bundle: one snappy-compressed JSONL file of desync events, one
// zstd-compressed stream of 27-word frame records matching the .rkrd
// layout, a manifest describing the bundle's files, and a header
// carrying run metadata.
package tracewriter

import (
	"encoding/json"
	"fmt"
	"os"
)

// HeaderSchemaVersion identifies the on-disk header layout.
const HeaderSchemaVersion = 1

// Header describes a trace bundle's run metadata, persisted as
// header.json inside the bundle directory.
type Header struct {
	SchemaVersion int    `json:"schema_version"`
	InputPath     string `json:"input_path"`
	ReferencePath string `json:"reference_path"`
	FrameCount    int    `json:"frame_count"`
	StartedAt     string `json:"started_at"`
	FilePointer   string `json:"file_pointer"`
}

// Validate checks the header's required fields.
func (h Header) Validate() error {
	if h.SchemaVersion != HeaderSchemaVersion {
		return fmt.Errorf("tracewriter: unsupported header schema version %d", h.SchemaVersion)
	}
	if h.InputPath == "" {
		return fmt.Errorf("tracewriter: header missing input_path")
	}
	if h.FilePointer == "" {
		return fmt.Errorf("tracewriter: header missing file_pointer")
	}
	return nil
}

// WriteHeader marshals and writes header to path.
func WriteHeader(path string, header Header) error {
	data, err := json.MarshalIndent(header, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadHeader reads and unmarshals a header from path.
func ReadHeader(path string) (Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, err
	}
	var header Header
	if err := json.Unmarshal(data, &header); err != nil {
		return Header{}, err
	}
	if err := header.Validate(); err != nil {
		return Header{}, err
	}
	return header, nil
}
