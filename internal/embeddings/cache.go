package embeddings

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/memvault/memvault/internal/constants"
	"github.com/memvault/memvault/internal/logger"
)

// Cache is a sqlite-backed embedding cache keyed by a content hash of the
// model name plus the embedded text. It only spares repeat round-trips to
// the embedding backend; losing it costs nothing but recomputation.
type Cache struct {
	db *sql.DB
}

func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS embedding_cache (
			key TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			dims INTEGER NOT NULL,
			vector BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// CacheKey derives the lookup key for one (model, text) pair.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for key, or ok=false on a miss. Decode
// failures are treated as misses so a corrupt row cannot poison lookups.
func (c *Cache) Get(key string) ([]float32, bool) {
	var blob []byte
	err := c.db.QueryRow("SELECT vector FROM embedding_cache WHERE key = ?", key).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		logger.Debug("Embedding cache read failed: %v", err)
		return nil, false
	}

	vec, err := BytesToEmbedding(blob)
	if err != nil {
		logger.Debug("Embedding cache entry %s is corrupt: %v", key, err)
		return nil, false
	}
	return vec, true
}

// Put stores a vector; cache writes are best-effort.
func (c *Cache) Put(key, model string, vec []float32) {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO embedding_cache (key, model, dims, vector) VALUES (?, ?, ?, ?)",
		key, model, len(vec), EmbeddingToBytes(vec),
	)
	if err != nil {
		logger.Debug("Embedding cache write failed: %v", err)
	}
}
