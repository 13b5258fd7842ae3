package notes

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteCreatesDatePartitionedNote(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2025, 6, 1, 9, 15, 30, 250*int(time.Millisecond), time.Local)

	notePath, err := Write(root, "Standup", "## Decisions\n\nShip it.", at)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expectedDir := filepath.Join(root, "2025-06-01")
	if filepath.Dir(notePath) != expectedDir {
		abs, _ := filepath.Abs(expectedDir)
		if filepath.Dir(notePath) != abs {
			t.Errorf("Note not under date partition: %s", notePath)
		}
	}

	raw, err := os.ReadFile(notePath)
	if err != nil {
		t.Fatalf("Failed to read note back: %v", err)
	}

	text, sections := ExtractSearchableText(string(raw))
	if text != "Ship it." {
		t.Errorf("Expected normalized text 'Ship it.', got %q", text)
	}
	if len(sections) != 1 || sections[0] != "Decisions" {
		t.Errorf("Expected sections [Decisions], got %v", sections)
	}

	ms, ok := TimestampFromPath(notePath)
	if !ok || ms != at.UnixMilli() {
		t.Errorf("Timestamp not recoverable from path: ok=%v ms=%d", ok, ms)
	}
}

func TestWriteNeverOverwrites(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2025, 6, 1, 9, 15, 30, 250*int(time.Millisecond), time.Local)

	first, err := Write(root, "a", "one", at)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	second, err := Write(root, "b", "two", at)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if first == second {
		t.Fatalf("Same-instant writes collided on %s", first)
	}

	raw, _ := os.ReadFile(first)
	if text, _ := ExtractSearchableText(string(raw)); text != "one" {
		t.Errorf("First note was clobbered: %q", text)
	}
}
