package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/memvault/memvault/internal/constants"
)

// StoreType identifies which physical note store a record came from.
type StoreType string

const (
	StoreProject StoreType = "project"
	StoreUser    StoreType = "user"
	StoreBoth    StoreType = "both"
)

type Config struct {
	// Store roots. Each contains date-named subdirectories of notes.
	ProjectNotesDir string `json:"project_notes_dir"`
	UserNotesDir    string `json:"user_notes_dir"`

	// Embedding backend
	OllamaEndpoint   string `json:"ollama_endpoint"`
	EmbeddingModel   string `json:"embedding_model"`
	VectorDimensions int    `json:"vector_dimensions"`

	// Embedding cache (sqlite). Empty path disables the cache.
	EmbeddingCachePath string `json:"embedding_cache_path,omitempty"`

	// HTTP API
	ListenAddr string `json:"listen_addr,omitempty"`

	Debug bool `json:"debug"`
}

// getDefaultConfig returns a fresh copy of the default configuration
func getDefaultConfig() Config {
	return Config{
		ProjectNotesDir:    "", // resolved against the working directory
		UserNotesDir:       "", // resolved against XDG data home
		OllamaEndpoint:     "http://localhost:11434",
		EmbeddingModel:     "nomic-embed-text",
		VectorDimensions:   0, // detected from the model on first embed
		EmbeddingCachePath: "",
		ListenAddr:         "127.0.0.1:21212",
		Debug:              false,
	}
}

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "memvault", "config.json"), nil
}

// GetDefaultUserNotesDir returns the user-scoped store root.
func GetDefaultUserNotesDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".memvault", "user-notes")
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "memvault", "notes")
}

// GetDefaultProjectNotesDir returns the project-scoped store root,
// resolved against the current working directory.
func GetDefaultProjectNotesDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".", ".memvault", "notes")
	}
	return filepath.Join(wd, ".memvault", "notes")
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := getDefaultConfig()

	// Config file is optional; defaults plus env cover first run.
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	// Set defaults for empty fields
	defaults := getDefaultConfig()
	if cfg.ProjectNotesDir == "" {
		cfg.ProjectNotesDir = GetDefaultProjectNotesDir()
	}
	if cfg.UserNotesDir == "" {
		cfg.UserNotesDir = GetDefaultUserNotesDir()
	}
	if cfg.OllamaEndpoint == "" {
		cfg.OllamaEndpoint = defaults.OllamaEndpoint
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaults.EmbeddingModel
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaults.ListenAddr
	}

	return &cfg, nil
}

// applyEnvOverrides lets the environment (or a .env file loaded at startup)
// override file-based settings.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEMVAULT_PROJECT_DIR"); v != "" {
		cfg.ProjectNotesDir = v
	}
	if v := os.Getenv("MEMVAULT_USER_DIR"); v != "" {
		cfg.UserNotesDir = v
	}
	if v := os.Getenv("MEMVAULT_OLLAMA_ENDPOINT"); v != "" {
		cfg.OllamaEndpoint = v
	}
	if v := os.Getenv("MEMVAULT_EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("MEMVAULT_CACHE_PATH"); v != "" {
		cfg.EmbeddingCachePath = v
	}
	if v := os.Getenv("MEMVAULT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if os.Getenv("MEMVAULT_DEBUG") == "true" {
		cfg.Debug = true
	}
}

func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, constants.ConfigFileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// StoreRoot returns the filesystem root for a single store type.
func (c *Config) StoreRoot(t StoreType) (string, bool) {
	switch t {
	case StoreProject:
		return c.ProjectNotesDir, true
	case StoreUser:
		return c.UserNotesDir, true
	default:
		return "", false
	}
}

// StoreRoots returns the roots selected by t, project first.
func (c *Config) StoreRoots(t StoreType) map[StoreType]string {
	roots := map[StoreType]string{}
	if t == StoreProject || t == StoreBoth {
		roots[StoreProject] = c.ProjectNotesDir
	}
	if t == StoreUser || t == StoreBoth {
		roots[StoreUser] = c.UserNotesDir
	}
	return roots
}

func (c *Config) GetOllamaAPIURL(endpoint string) string {
	return fmt.Sprintf("%s/api/%s", c.OllamaEndpoint, endpoint)
}
