package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/memvault/memvault/internal/config"
	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/internal/notes"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Write a new note",
	Long: `Write a new timestamped note into the project or user store and index it
for search. When no content argument is given, the body is read from stdin.
Use '## Label' headings in the body to mark sections.`,
	RunE: runAdd,
}

var (
	addTitle string
	addStore string
)

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Note title recorded in the header")
	addCmd.Flags().StringVar(&addStore, "store", "project", "Target store: project or user")
}

func runAdd(cmd *cobra.Command, args []string) error {
	var content string
	if len(args) > 0 {
		content = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read note body from stdin: %w", err)
		}
		content = string(data)
	}
	if content == "" {
		return fmt.Errorf("note content cannot be empty")
	}

	root, ok := appConfig.StoreRoot(config.StoreType(addStore))
	if !ok {
		return fmt.Errorf("invalid store %q (use project or user)", addStore)
	}

	notePath, err := notes.Write(root, addTitle, content, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}

	if _, err := reconciler.IndexNote(cmd.Context(), notePath); err != nil {
		logger.Error("Note saved but not indexed: %v", err)
		fmt.Printf("Note written to %s (indexing failed; run 'memvault reindex')\n", notePath)
		return nil
	}

	fmt.Printf("Note written to %s\n", notePath)
	return nil
}
