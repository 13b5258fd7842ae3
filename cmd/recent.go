package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/memvault/memvault/internal/config"
	"github.com/memvault/memvault/internal/search"
	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent notes",
	Long:  `List indexed notes in reverse chronological order, without any similarity ranking.`,
	RunE:  runRecent,
}

var (
	recentLimit int
	recentStore string
	recentSince string
	recentUntil string
)

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "l", 10, "Maximum number of results")
	recentCmd.Flags().StringVar(&recentStore, "store", "both", "Store to list: project, user or both")
	recentCmd.Flags().StringVar(&recentSince, "since", "", "Only notes on or after this date (YYYY-MM-DD)")
	recentCmd.Flags().StringVar(&recentUntil, "until", "", "Only notes before this date (YYYY-MM-DD)")
}

func runRecent(_ *cobra.Command, _ []string) error {
	opts := search.DefaultOptions()
	opts.Limit = recentLimit
	opts.Type = config.StoreType(recentStore)

	var err error
	if opts.Since, err = parseDateFlag(recentSince); err != nil {
		return err
	}
	if opts.Until, err = parseDateFlag(recentUntil); err != nil {
		return err
	}

	results, err := queryEngine.ListRecent(opts)
	if err != nil {
		return fmt.Errorf("failed to list recent notes: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No notes found.")
		return nil
	}

	for i, r := range results {
		when := time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04:05")
		fmt.Printf("%d. %s (%s, %s)\n", i+1, r.Path, r.Type, when)
		if len(r.Sections) > 0 {
			fmt.Printf("   Sections: %s\n", strings.Join(r.Sections, ", "))
		}
		fmt.Printf("   %s\n\n", r.Excerpt)
	}
	return nil
}
