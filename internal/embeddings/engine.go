// Package embeddings turns note text into unit-length vectors via an
// Ollama-compatible embeddings endpoint, with a sqlite cache in front and
// the vector math used for ranking.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/memvault/memvault/internal/apperrors"
	"github.com/memvault/memvault/internal/config"
	"github.com/memvault/memvault/internal/logger"
)

// Provider is the text-to-vector contract consumed by the query engine and
// the reconciler.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// inflight tracks one in-progress model warmup shared by every caller that
// arrives before it settles.
type inflight struct {
	done chan struct{}
	err  error
}

// Engine embeds text through Ollama. The first Embed call warms the model
// up (forcing Ollama to load it and pinning the vector dimensionality);
// concurrent first callers all await that same warmup, and a failed warmup
// is retried by the next call rather than cached forever.
type Engine struct {
	cfg    *config.Config
	cache  *Cache
	client *http.Client

	mu      sync.Mutex
	ready   bool
	dims    int
	pending *inflight
}

func NewEngine(cfg *config.Config, cache *Cache) *Engine {
	return &Engine{
		cfg:    cfg,
		cache:  cache,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Dimensions reports the model's vector length, or 0 before first use.
func (e *Engine) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

// Embed returns the L2-normalized embedding for text.
func (e *Engine) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.ensureReady(ctx); err != nil {
		return nil, err
	}

	key := CacheKey(e.cfg.EmbeddingModel, text)
	if e.cache != nil {
		if vec, ok := e.cache.Get(key); ok {
			logger.Debug("Embedding cache hit for %d chars", len(text))
			return vec, nil
		}
	}

	vec, err := e.fetchEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Put(key, e.cfg.EmbeddingModel, vec)
	}
	return vec, nil
}

// ensureReady performs the one-time model warmup. All concurrent callers
// share a single in-flight attempt; failure is surfaced to every waiter and
// forgotten, so a later call starts a fresh attempt.
func (e *Engine) ensureReady(ctx context.Context) error {
	e.mu.Lock()
	if e.ready {
		e.mu.Unlock()
		return nil
	}

	if e.pending != nil {
		fl := e.pending
		e.mu.Unlock()
		select {
		case <-fl.done:
			return fl.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	fl := &inflight{done: make(chan struct{})}
	e.pending = fl
	e.mu.Unlock()

	dims, err := e.warmup(ctx)

	e.mu.Lock()
	if err == nil {
		e.ready = true
		e.dims = dims
	}
	fl.err = err
	e.pending = nil
	e.mu.Unlock()
	close(fl.done)

	return err
}

// warmup issues a probe embedding so Ollama loads the model, and records
// the dimensionality every later vector must match.
func (e *Engine) warmup(ctx context.Context) (int, error) {
	logger.Debug("Warming up embedding model %s", e.cfg.EmbeddingModel)
	start := time.Now()

	vec, err := e.requestEmbedding(ctx, "memvault model warmup")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrModelInitialization, err)
	}

	logger.Info("Embedding model %s ready (%d dimensions, %v)",
		e.cfg.EmbeddingModel, len(vec), time.Since(start).Round(time.Millisecond))
	return len(vec), nil
}

// fetchEmbedding requests one vector and enforces stable dimensionality.
func (e *Engine) fetchEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.requestEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	e.mu.Lock()
	dims := e.dims
	e.mu.Unlock()
	if dims > 0 && len(vec) != dims {
		return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d",
			apperrors.ErrDimensionMismatch, len(vec), dims)
	}

	return vec, nil
}

func (e *Engine) requestEmbedding(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model":  e.cfg.EmbeddingModel,
		"prompt": text,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := e.cfg.GetOllamaAPIURL("embeddings")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("Ollama response status: %d, time: %v", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embedding API returned an empty vector")
	}

	Normalize(result.Embedding)
	return result.Embedding, nil
}
