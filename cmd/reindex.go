package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Backfill missing embedding records",
	Long: `Walk both note stores and create an embedding record for every note that
lacks one. Already-indexed notes are untouched, so running this repeatedly
is safe. Individual failures are logged and skipped.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	fmt.Printf("Reconciling stores:\n  project: %s\n  user:    %s\n\n",
		appConfig.ProjectNotesDir, appConfig.UserNotesDir)

	created := reconciler.ReconcileAll(cmd.Context(), appConfig.ProjectNotesDir, appConfig.UserNotesDir)
	fmt.Printf("Created %d records.\n", created)
	return nil
}
