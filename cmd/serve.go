package cmd

import (
	"net/http"

	"github.com/memvault/memvault/internal/api"
	"github.com/memvault/memvault/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve the retrieval operations over HTTP:

  POST /api/search   semantic search
  GET  /api/recent   reverse-chronological listing
  GET  /api/entry    read a note by path
  POST /api/notes    write a new note
  POST /api/reindex  backfill missing embedding records
  GET  /api/health   liveness check`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		appConfig.ListenAddr = serveAddr
	}

	created := reconciler.ReconcileAll(cmd.Context(), appConfig.ProjectNotesDir, appConfig.UserNotesDir)
	if created > 0 {
		logger.Info("Startup reconciliation created %d records", created)
	}

	server := api.NewAPIServer(appConfig, queryEngine, reconciler)
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
