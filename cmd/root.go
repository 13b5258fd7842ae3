package cmd

import (
	"fmt"
	"os"

	"github.com/memvault/memvault/internal/config"
	"github.com/memvault/memvault/internal/embeddings"
	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/internal/reconcile"
	"github.com/memvault/memvault/internal/search"
	"github.com/spf13/cobra"
)

var (
	appConfig   *config.Config
	embedCache  *embeddings.Cache
	embedEngine *embeddings.Engine
	queryEngine *search.Engine
	reconciler  *reconcile.Reconciler
	debugFlag   bool
	Version     = "dev" // Version is set from main.go
)

var rootCmd = &cobra.Command{
	Use:     "memvault",
	Short:   "Append-only notes with semantic retrieval",
	Version: Version,
	Long: `memvault keeps short timestamped notes in two file stores (one per
project, one per user) and answers semantic queries over them using vector
embeddings. Every note gets an embedding sidecar; a startup reconciliation
pass backfills any that are missing.`,
}

func Execute() error {
	rootCmd.Version = Version
	defer func() {
		if embedCache != nil {
			embedCache.Close()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initAppConfig)
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func initAppConfig() {
	var err error
	appConfig, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if debugFlag || appConfig.Debug {
		logger.SetDebugMode(true)
		logger.Debug("Project store: %s", appConfig.ProjectNotesDir)
		logger.Debug("User store: %s", appConfig.UserNotesDir)
		logger.Debug("Ollama endpoint: %s", appConfig.OllamaEndpoint)
		logger.Debug("Embedding model: %s", appConfig.EmbeddingModel)
	}

	if appConfig.EmbeddingCachePath != "" {
		embedCache, err = embeddings.OpenCache(appConfig.EmbeddingCachePath)
		if err != nil {
			logger.Warn("Embedding cache unavailable, continuing without: %v", err)
			embedCache = nil
		}
	}

	embedEngine = embeddings.NewEngine(appConfig, embedCache)
	queryEngine = search.NewEngine(appConfig, embedEngine)
	reconciler = reconcile.New(embedEngine)
}
