package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/memvault/memvault/internal/apperrors"
	"github.com/memvault/memvault/internal/config"
)

func newTestBackend(t *testing.T, fail *atomic.Bool, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if fail != nil && fail.Load() {
			http.Error(w, "model not found", http.StatusInternalServerError)
			return
		}
		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		// Deterministic per-text vector so cache hits are observable.
		vec := []float32{float32(len(req.Prompt)), 1, 2}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vec})
	}))
}

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		OllamaEndpoint: endpoint,
		EmbeddingModel: "test-model",
	}
}

func TestEmbedReturnsUnitVectors(t *testing.T) {
	var calls atomic.Int64
	backend := newTestBackend(t, nil, &calls)
	defer backend.Close()

	engine := NewEngine(testConfig(backend.URL), nil)
	vec, err := engine.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("Expected unit-length vector, got norm %f", math.Sqrt(norm))
	}

	if engine.Dimensions() != 3 {
		t.Errorf("Expected 3 dimensions after warmup, got %d", engine.Dimensions())
	}
}

func TestConcurrentFirstUseSharesOneWarmup(t *testing.T) {
	var calls atomic.Int64
	backend := newTestBackend(t, nil, &calls)
	defer backend.Close()

	engine := NewEngine(testConfig(backend.URL), nil)

	const callers = 16
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Embed(context.Background(), "same text"); err != nil {
				t.Errorf("Embed failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// One warmup probe plus one embedding per distinct text. Concurrent
	// callers must not each trigger their own model load.
	if calls.Load() != callers+1 {
		t.Errorf("Expected %d backend calls (1 warmup + %d embeds), got %d", callers+1, callers, calls.Load())
	}
}

func TestFailedWarmupIsRetried(t *testing.T) {
	var calls atomic.Int64
	var fail atomic.Bool
	fail.Store(true)
	backend := newTestBackend(t, &fail, &calls)
	defer backend.Close()

	engine := NewEngine(testConfig(backend.URL), nil)

	_, err := engine.Embed(context.Background(), "text")
	if !errors.Is(err, apperrors.ErrModelInitialization) {
		t.Fatalf("Expected ErrModelInitialization, got %v", err)
	}

	// Failure is not cached: the backend recovering makes the next call work.
	fail.Store(false)
	if _, err := engine.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
}

func TestEmbedUsesCache(t *testing.T) {
	var calls atomic.Int64
	backend := newTestBackend(t, nil, &calls)
	defer backend.Close()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	defer cache.Close()

	engine := NewEngine(testConfig(backend.URL), cache)

	first, err := engine.Embed(context.Background(), "repeated text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	afterFirst := calls.Load()

	second, err := engine.Embed(context.Background(), "repeated text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if calls.Load() != afterFirst {
		t.Errorf("Second embed of identical text hit the backend (%d -> %d calls)", afterFirst, calls.Load())
	}
	if len(first) != len(second) {
		t.Fatalf("Cache returned a vector of different length")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Cache returned a different vector at %d: %f vs %f", i, first[i], second[i])
		}
	}
}

func TestCacheMissAndCorruptEntry(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.Get(CacheKey("m", "never stored")); ok {
		t.Error("Expected a miss for a never-stored key")
	}

	cache.Put(CacheKey("m", "text"), "m", []float32{1, 2, 3})
	vec, ok := cache.Get(CacheKey("m", "text"))
	if !ok || len(vec) != 3 || vec[2] != 3 {
		t.Errorf("Expected cached vector back, got %v ok=%v", vec, ok)
	}

	// A truncated blob reads as a miss, not an error.
	if _, err := cache.db.Exec("UPDATE embedding_cache SET vector = X'0102' WHERE key = ?", CacheKey("m", "text")); err != nil {
		t.Fatalf("Failed to corrupt row: %v", err)
	}
	if _, ok := cache.Get(CacheKey("m", "text")); ok {
		t.Error("Expected corrupt entry to read as a miss")
	}
}
