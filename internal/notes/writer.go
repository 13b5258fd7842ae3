package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/memvault/memvault/internal/constants"
)

// Write creates a new note file under root's date partition for t, with a
// metadata header followed by the note body. Notes are append-only: an
// existing file is never rewritten, so a same-millisecond collision bumps
// the encoded instant forward until a free name is found.
func Write(root, title, content string, t time.Time) (string, error) {
	dateDir := filepath.Join(root, t.Format(constants.DateDirLayout))
	if err := os.MkdirAll(dateDir, constants.DirMode); err != nil {
		return "", fmt.Errorf("failed to create date directory: %w", err)
	}

	notePath := ""
	for {
		candidate := filepath.Join(dateDir, NoteFileName(t))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			notePath = candidate
			break
		}
		t = t.Add(time.Millisecond)
	}

	header := fmt.Sprintf("---\ntitle: %s\ncreated: %s\ntimestamp: %d\n---\n\n",
		title, t.Format(time.RFC3339), t.UnixMilli())

	if err := os.WriteFile(notePath, []byte(header+content), constants.NoteFileMode); err != nil {
		return "", fmt.Errorf("failed to write note: %w", err)
	}

	abs, err := filepath.Abs(notePath)
	if err != nil {
		return notePath, nil
	}
	return abs, nil
}
