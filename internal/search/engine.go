// Package search answers similarity queries and recency listings over the
// union (or a filtered subset) of the project and user note stores. Search
// is exhaustive: every sidecar record is scored against the query vector.
package search

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/memvault/memvault/internal/apperrors"
	"github.com/memvault/memvault/internal/config"
	"github.com/memvault/memvault/internal/constants"
	"github.com/memvault/memvault/internal/embeddings"
	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/internal/store"
)

// MinScoreNone disables the similarity threshold entirely. It sits below
// the cosine range so every scored candidate survives the cutoff.
const MinScoreNone = -2.0

// Options narrows a search or recency listing. Zero values fall back to
// the defaults from DefaultOptions.
type Options struct {
	Limit    int
	MinScore float64 // ignored by ListRecent; 0 means the default, MinScoreNone means no threshold
	Sections []string
	Since    int64 // inclusive millisecond lower bound, 0 = unbounded
	Until    int64 // exclusive millisecond upper bound, 0 = unbounded
	Type     config.StoreType
}

func DefaultOptions() Options {
	return Options{
		Limit:    constants.DefaultSearchLimit,
		MinScore: constants.DefaultMinScore,
		Type:     config.StoreBoth,
	}
}

// Result is one ranked entry returned to the calling boundary.
type Result struct {
	Path      string           `json:"path"`
	Score     float64          `json:"score"`
	Text      string           `json:"text"`
	Sections  []string         `json:"sections"`
	Timestamp int64            `json:"timestamp"`
	Excerpt   string           `json:"excerpt"`
	Type      config.StoreType `json:"type"`
}

type Engine struct {
	cfg      *config.Config
	embedder embeddings.Provider
}

func NewEngine(cfg *config.Config, embedder embeddings.Provider) *Engine {
	return &Engine{cfg: cfg, embedder: embedder}
}

// candidate tags a record with the store it was loaded from; the tag is
// derived from the root, never stored in the record.
type candidate struct {
	record    *store.VectorRecord
	storeType config.StoreType
}

// Search embeds query, scores every candidate record against it, and
// returns the top matches. A failed query embedding fails the whole
// operation: no partial ranking is ever returned.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.ErrEmptyQuery
	}
	opts = e.normalize(opts)

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := e.loadCandidates(opts)
	if err != nil {
		return nil, err
	}

	type scored struct {
		candidate
		score float64
	}
	var survivors []scored
	for _, c := range candidates {
		score, err := embeddings.CosineSimilarity(queryVec, c.record.Embedding)
		if err != nil {
			// Length disagreement is fatal for the pair only.
			logger.Error("Discarding record %s: %v", c.record.Path, err)
			continue
		}
		if float64(score) < opts.MinScore {
			continue
		}
		survivors = append(survivors, scored{candidate: c, score: float64(score)})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].score > survivors[j].score
	})
	if len(survivors) > opts.Limit {
		survivors = survivors[:opts.Limit]
	}

	results := make([]Result, 0, len(survivors))
	for _, s := range survivors {
		results = append(results, Result{
			Path:      s.record.Path,
			Score:     s.score,
			Text:      s.record.Text,
			Sections:  s.record.Sections,
			Timestamp: s.record.Timestamp,
			Excerpt:   Excerpt(s.record.Text, query, constants.DefaultExcerptChars),
			Type:      s.storeType,
		})
	}
	return results, nil
}

// ListRecent returns the newest records first. No embedding or scoring
// happens; every result carries the constant recency score.
func (e *Engine) ListRecent(opts Options) ([]Result, error) {
	opts = e.normalize(opts)

	candidates, err := e.loadCandidates(opts)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].record.Timestamp > candidates[j].record.Timestamp
	})
	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, Result{
			Path:      c.record.Path,
			Score:     constants.RecentResultScore,
			Text:      c.record.Text,
			Sections:  c.record.Sections,
			Timestamp: c.record.Timestamp,
			Excerpt:   Excerpt(c.record.Text, "", constants.DefaultExcerptChars),
			Type:      c.storeType,
		})
	}
	return results, nil
}

// ReadEntry returns a note's raw content by path. A missing note is an
// absent result, not an error.
func (e *Engine) ReadEntry(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

func (e *Engine) normalize(opts Options) Options {
	if opts.Limit <= 0 {
		opts.Limit = constants.DefaultSearchLimit
	}
	if opts.MinScore == 0 {
		opts.MinScore = constants.DefaultMinScore
	}
	if opts.Type == "" {
		opts.Type = config.StoreBoth
	}
	return opts
}

// loadCandidates scans the selected store roots, tags each record with its
// store type, and applies the section and date-range filters.
func (e *Engine) loadCandidates(opts Options) ([]candidate, error) {
	roots := e.cfg.StoreRoots(opts.Type)
	if len(roots) == 0 {
		return nil, apperrors.ErrUnknownStoreType
	}

	var candidates []candidate
	for _, storeType := range []config.StoreType{config.StoreProject, config.StoreUser} {
		root, ok := roots[storeType]
		if !ok {
			continue
		}
		records, err := store.ScanAll(root)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			if !matchesSections(record.Sections, opts.Sections) {
				continue
			}
			if !matchesDateRange(record.Timestamp, opts.Since, opts.Until) {
				continue
			}
			candidates = append(candidates, candidate{record: record, storeType: storeType})
		}
	}
	return candidates, nil
}

// matchesSections reports whether any requested filter is a
// case-insensitive substring of any of the record's section labels. An
// empty filter list matches everything.
func matchesSections(sections, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, filter := range filters {
		lowered := strings.ToLower(filter)
		for _, section := range sections {
			if strings.Contains(strings.ToLower(section), lowered) {
				return true
			}
		}
	}
	return false
}

func matchesDateRange(timestamp, since, until int64) bool {
	if since != 0 && timestamp < since {
		return false
	}
	if until != 0 && timestamp >= until {
		return false
	}
	return true
}
