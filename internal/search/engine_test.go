package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/memvault/memvault/internal/apperrors"
	"github.com/memvault/memvault/internal/config"
	"github.com/memvault/memvault/internal/embeddings"
	"github.com/memvault/memvault/internal/store"
)

// topicEmbedder maps text to a fixed direction per topic so similarity
// behaves predictably without a live model.
type topicEmbedder struct {
	failEmbed bool
}

func (f *topicEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failEmbed {
		return nil, apperrors.ErrModelInitialization
	}
	lower := strings.ToLower(text)
	vec := []float32{0.1, 0.1, 0.1}
	switch {
	case strings.Contains(lower, "typescript"):
		vec = []float32{1, 0.1, 0}
	case strings.Contains(lower, "javascript"):
		vec = []float32{0.1, 1, 0}
	case strings.Contains(lower, "architecture"):
		vec = []float32{0, 0.1, 1}
	}
	embeddings.Normalize(vec)
	return vec, nil
}

func (f *topicEmbedder) Dimensions() int { return 3 }

type fixture struct {
	cfg    *config.Config
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		ProjectNotesDir: t.TempDir(),
		UserNotesDir:    t.TempDir(),
	}
	return &fixture{cfg: cfg, engine: NewEngine(cfg, &topicEmbedder{})}
}

// addRecord writes a note file and its sidecar directly into a store root.
func (f *fixture) addRecord(t *testing.T, root, day, name, text string, sections []string, timestamp int64) string {
	t.Helper()
	dir := filepath.Join(root, day)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create date dir: %v", err)
	}
	notePath := filepath.Join(dir, name)
	if err := os.WriteFile(notePath, []byte(text), 0644); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}

	vec, err := (&topicEmbedder{}).Embed(context.Background(), text)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	record := &store.VectorRecord{
		Embedding: vec,
		Text:      text,
		Sections:  sections,
		Timestamp: timestamp,
		Path:      notePath,
	}
	if err := store.Save(notePath, record); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return notePath
}

func TestSearchRanksBySimilarity(t *testing.T) {
	f := newFixture(t)
	a := f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md",
		"I feel frustrated with debugging TypeScript errors", nil, 1)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "10-00-00-000.md",
		"JavaScript async patterns can be tricky", nil, 2)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "11-00-00-000.md",
		"The component architecture is working well", nil, 3)

	results, err := f.engine.Search(context.Background(), "feeling upset about TypeScript problems", DefaultOptions())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) == 0 {
		t.Fatal("Expected at least one result")
	}
	if results[0].Path != a {
		t.Errorf("Expected the TypeScript note first, got %s", results[0].Path)
	}
	if results[0].Score <= 0.1 {
		t.Errorf("Expected top score above 0.1, got %f", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("Results not in descending score order at %d", i)
		}
	}
}

func TestSearchMinScoreAndLimit(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md",
		"TypeScript generics deep dive", nil, 1)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "10-00-00-000.md",
		"TypeScript compiler flags", nil, 2)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "11-00-00-000.md",
		"The component architecture is working well", nil, 3)

	opts := DefaultOptions()
	opts.MinScore = 0.9
	opts.Limit = 1
	results, err := f.engine.Search(context.Background(), "TypeScript", opts)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected limit to cap results at 1, got %d", len(results))
	}
	if results[0].Score < 0.9 {
		t.Errorf("Expected only scores >= 0.9, got %f", results[0].Score)
	}
}

func TestSearchZeroOptionsUseDefaults(t *testing.T) {
	f := newFixture(t)
	strong := f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md",
		"TypeScript compiler internals", nil, 1)
	// Near-orthogonal to the query direction, scoring well under 0.1.
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "10-00-00-000.md",
		"The component architecture is working well", nil, 2)

	// A zero-value Options must behave like DefaultOptions: the similarity
	// threshold applies even when the caller never set one.
	results, err := f.engine.Search(context.Background(), "TypeScript", Options{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 || results[0].Path != strong {
		t.Fatalf("Expected only the above-threshold note, got %+v", results)
	}

	// MinScoreNone lifts the threshold and admits the weak match too.
	results, err = f.engine.Search(context.Background(), "TypeScript", Options{MinScore: MinScoreNone})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected MinScoreNone to admit every candidate, got %d results", len(results))
	}
}

func TestSearchTypeFilter(t *testing.T) {
	f := newFixture(t)
	// The user store holds the better match; a project-only search must not
	// surface it.
	f.addRecord(t, f.cfg.UserNotesDir, "2025-06-01", "09-00-00-000.md",
		"TypeScript error handling tricks", nil, 1)
	projectNote := f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md",
		"JavaScript promise chains", nil, 2)

	opts := DefaultOptions()
	opts.Type = config.StoreProject
	opts.MinScore = MinScoreNone
	results, err := f.engine.Search(context.Background(), "TypeScript", opts)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	for _, r := range results {
		if r.Type != config.StoreProject {
			t.Errorf("Expected only project results, got %s", r.Type)
		}
		if r.Path != projectNote {
			t.Errorf("Unexpected result %s", r.Path)
		}
	}
}

func TestSearchTagsStoreType(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md", "TypeScript one", nil, 1)
	f.addRecord(t, f.cfg.UserNotesDir, "2025-06-01", "09-00-00-000.md", "TypeScript two", nil, 2)

	opts := DefaultOptions()
	opts.MinScore = MinScoreNone
	results, err := f.engine.Search(context.Background(), "TypeScript", opts)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected both stores searched, got %d results", len(results))
	}

	types := map[config.StoreType]bool{}
	for _, r := range results {
		types[r.Type] = true
	}
	if !types[config.StoreProject] || !types[config.StoreUser] {
		t.Errorf("Expected one result per store type, got %v", types)
	}
}

func TestSearchSectionFilter(t *testing.T) {
	f := newFixture(t)
	tagged := f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md",
		"TypeScript decisions", []string{"Design Decisions"}, 1)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "10-00-00-000.md",
		"TypeScript scratchpad", []string{"Scratch"}, 2)

	opts := DefaultOptions()
	opts.MinScore = MinScoreNone
	opts.Sections = []string{"decision"} // case-insensitive substring
	results, err := f.engine.Search(context.Background(), "TypeScript", opts)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 || results[0].Path != tagged {
		t.Errorf("Expected only the Design Decisions note, got %+v", results)
	}
}

func TestSearchDateRange(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md", "TypeScript early", nil, 100)
	inRange := f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-02", "09-00-00-000.md", "TypeScript middle", nil, 200)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-03", "09-00-00-000.md", "TypeScript late", nil, 300)

	opts := DefaultOptions()
	opts.MinScore = MinScoreNone
	opts.Since = 150 // inclusive
	opts.Until = 300 // exclusive
	results, err := f.engine.Search(context.Background(), "TypeScript", opts)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 || results[0].Path != inRange {
		t.Errorf("Expected only the in-range note, got %+v", results)
	}
}

func TestSearchEmbeddingFailureIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md", "TypeScript note", nil, 1)
	f.engine = NewEngine(f.cfg, &topicEmbedder{failEmbed: true})

	results, err := f.engine.Search(context.Background(), "TypeScript", DefaultOptions())
	if !errors.Is(err, apperrors.ErrModelInitialization) {
		t.Fatalf("Expected the embedding failure to propagate, got %v", err)
	}
	if results != nil {
		t.Error("A failed query embedding must not return partial results")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.Search(context.Background(), "   ", DefaultOptions()); !errors.Is(err, apperrors.ErrEmptyQuery) {
		t.Errorf("Expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearchDiscardsMismatchedDimensions(t *testing.T) {
	f := newFixture(t)
	good := f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md", "TypeScript note", nil, 1)

	// A record embedded under a different model configuration.
	stale := filepath.Join(f.cfg.ProjectNotesDir, "2025-06-01", "10-00-00-000.md")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(stale, &store.VectorRecord{Embedding: []float32{1, 0}, Text: "old", Timestamp: 2, Path: stale}); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.MinScore = MinScoreNone
	results, err := f.engine.Search(context.Background(), "TypeScript", opts)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Path != good {
		t.Errorf("Expected the mismatched record to be discarded, got %+v", results)
	}
}

func TestListRecent(t *testing.T) {
	f := newFixture(t)
	for i, ts := range []int64{100, 500, 300, 200, 400} {
		name := fmt.Sprintf("09-00-%02d-000.md", i)
		f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", name, "note body", nil, ts)
	}

	opts := DefaultOptions()
	opts.Limit = 2
	results, err := f.engine.ListRecent(opts)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected exactly 2 results, got %d", len(results))
	}
	if results[0].Timestamp != 500 || results[1].Timestamp != 400 {
		t.Errorf("Expected timestamps [500 400], got [%d %d]", results[0].Timestamp, results[1].Timestamp)
	}
	for _, r := range results {
		if r.Score != 1 {
			t.Errorf("Recency results carry a constant score of 1, got %f", r.Score)
		}
	}
}

func TestReadEntry(t *testing.T) {
	f := newFixture(t)
	notePath := f.addRecord(t, f.cfg.ProjectNotesDir, "2025-06-01", "09-00-00-000.md", "raw content here", nil, 1)

	content, found, err := f.engine.ReadEntry(notePath)
	if err != nil || !found {
		t.Fatalf("Expected note to be readable, found=%v err=%v", found, err)
	}
	if content != "raw content here" {
		t.Errorf("Unexpected content %q", content)
	}

	_, found, err = f.engine.ReadEntry(filepath.Join(f.cfg.ProjectNotesDir, "nope.md"))
	if err != nil {
		t.Fatalf("Absent note must not be an error, got %v", err)
	}
	if found {
		t.Error("Expected absent result for a missing note")
	}
}
