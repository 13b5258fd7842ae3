// Package store persists one vector record per note as a JSON sidecar file
// next to the note itself, and enumerates records across a store root's
// date-partitioned layout.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/memvault/memvault/internal/apperrors"
	"github.com/memvault/memvault/internal/constants"
)

// VectorRecord is the embedding sidecar for exactly one note. Records are
// written once and never mutated; a record whose note has since been
// deleted is tolerated by readers and simply skipped.
type VectorRecord struct {
	Embedding []float32 `json:"embedding"`
	Text      string    `json:"text"`
	Sections  []string  `json:"sections"`
	Timestamp int64     `json:"timestamp"`
	Path      string    `json:"path"`
}

// SidecarPath maps a note path to its sidecar location: same directory,
// same base name, the note extension swapped for the sidecar extension.
// Every lookup and reconciliation pass must go through this mapping or
// records become undiscoverable.
func SidecarPath(notePath string) string {
	return strings.TrimSuffix(notePath, constants.NoteExtension) + constants.SidecarExtension
}

// NotePath is the inverse of SidecarPath.
func NotePath(sidecarPath string) string {
	return strings.TrimSuffix(sidecarPath, constants.SidecarExtension) + constants.NoteExtension
}

// Save writes the record for notePath, overwriting any previous sidecar.
func Save(notePath string, record *VectorRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := os.WriteFile(SidecarPath(notePath), data, constants.NoteFileMode); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Load reads the record for notePath. A missing sidecar is a normal
// absent result (nil, nil): it only means the note is not yet indexed.
func Load(notePath string) (*VectorRecord, error) {
	data, err := os.ReadFile(SidecarPath(notePath))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var record VectorRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrRecordParse, SidecarPath(notePath), err)
	}
	return &record, nil
}
