package store

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/memvault/memvault/internal/constants"
	"github.com/memvault/memvault/internal/logger"
)

// dateDirPattern matches the YYYY-MM-DD partition directories; anything
// else under a store root is ignored by scans.
var dateDirPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ScanAll loads every parseable sidecar record under root. A corrupt
// sidecar is logged and skipped so one bad record cannot hide the rest of
// the index; a missing root is an empty (never-used) store, not an error.
func ScanAll(root string) ([]*VectorRecord, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []*VectorRecord
	for _, entry := range entries {
		if !entry.IsDir() || !dateDirPattern.MatchString(entry.Name()) {
			continue
		}

		dayDir := filepath.Join(root, entry.Name())
		files, err := os.ReadDir(dayDir)
		if err != nil {
			logger.Error("Failed to read store directory %s: %v", dayDir, err)
			continue
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), constants.SidecarExtension) {
				continue
			}
			sidecar := filepath.Join(dayDir, f.Name())
			record, err := Load(NotePath(sidecar))
			if err != nil {
				logger.Error("Skipping unreadable record %s: %v", sidecar, err)
				continue
			}
			if record == nil {
				continue
			}
			records = append(records, record)
		}
	}

	return records, nil
}

// ScanNotes lists the note files under root's date partitions in lexical
// order, which matches chronological order under the naming convention.
func ScanNotes(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() || !dateDirPattern.MatchString(entry.Name()) {
			continue
		}

		dayDir := filepath.Join(root, entry.Name())
		files, err := os.ReadDir(dayDir)
		if err != nil {
			logger.Error("Failed to read store directory %s: %v", dayDir, err)
			continue
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), constants.NoteExtension) {
				continue
			}
			paths = append(paths, filepath.Join(dayDir, f.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}
