// Package reconcile backfills missing embedding sidecars so the vector
// index converges to the set of notes on disk. It runs at startup and is
// idempotent: already-indexed notes are untouched.
package reconcile

import (
	"context"
	"os"
	"time"

	"github.com/memvault/memvault/internal/embeddings"
	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/internal/notes"
	"github.com/memvault/memvault/internal/store"
)

type Reconciler struct {
	embedder embeddings.Provider
	now      func() time.Time
}

func New(embedder embeddings.Provider) *Reconciler {
	return &Reconciler{embedder: embedder, now: time.Now}
}

// Reconcile walks every note under root and creates the sidecar for any
// note that lacks one. Per-note failures are logged and skipped; the
// returned count covers only the records actually created. Notes whose
// normalized text is empty are intentionally never indexed.
func (r *Reconciler) Reconcile(ctx context.Context, root string) (int, error) {
	notePaths, err := store.ScanNotes(root)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, notePath := range notePaths {
		select {
		case <-ctx.Done():
			return created, ctx.Err()
		default:
		}

		if _, err := os.Stat(store.SidecarPath(notePath)); err == nil {
			continue
		}

		ok, err := r.IndexNote(ctx, notePath)
		if err != nil {
			logger.Error("Skipping note %s: %v", notePath, err)
			continue
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		logger.Info("Reconciled %s: created %d records", root, created)
	}
	return created, nil
}

// ReconcileAll runs reconciliation over each root, returning the total
// count of records created. A failing root is logged and skipped so one
// unreadable store cannot block the other.
func (r *Reconciler) ReconcileAll(ctx context.Context, roots ...string) int {
	total := 0
	for _, root := range roots {
		n, err := r.Reconcile(ctx, root)
		total += n
		if err != nil {
			logger.Error("Reconciliation of %s stopped early: %v", root, err)
		}
	}
	return total
}

// IndexNote embeds one note and persists its sidecar record. It reports
// false with no error for notes whose normalized text is empty: those are
// intentionally never indexed. The same path runs at note-write time.
func (r *Reconciler) IndexNote(ctx context.Context, notePath string) (bool, error) {
	raw, err := os.ReadFile(notePath)
	if err != nil {
		return false, err
	}

	text, sections := notes.ExtractSearchableText(string(raw))
	if text == "" {
		logger.Debug("Note %s has no section bodies, not indexing", notePath)
		return false, nil
	}

	timestamp, ok := notes.TimestampFromPath(notePath)
	if !ok {
		timestamp = r.now().UnixMilli()
	}

	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return false, err
	}

	record := &store.VectorRecord{
		Embedding: vec,
		Text:      text,
		Sections:  sections,
		Timestamp: timestamp,
		Path:      notePath,
	}
	if err := store.Save(notePath, record); err != nil {
		return false, err
	}

	logger.Debug("Indexed %s (%d sections)", notePath, len(sections))
	return true, nil
}
