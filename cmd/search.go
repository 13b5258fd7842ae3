package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/memvault/memvault/internal/config"
	"github.com/memvault/memvault/internal/search"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes by semantic similarity",
	Long: `Search notes using vector similarity. The query is embedded and scored
against every indexed note in the selected store(s); results are ranked by
cosine similarity and shown with an excerpt around the best query-term
overlap.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	searchLimit    int
	searchMinScore float64
	searchSections []string
	searchStore    string
	searchSince    string
	searchUntil    string
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "Maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0.1, "Minimum similarity score")
	searchCmd.Flags().StringSliceVarP(&searchSections, "section", "s", nil, "Only match notes with these section labels (substring, case-insensitive)")
	searchCmd.Flags().StringVar(&searchStore, "store", "both", "Store to search: project, user or both")
	searchCmd.Flags().StringVar(&searchSince, "since", "", "Only notes on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchUntil, "until", "", "Only notes before this date (YYYY-MM-DD)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	opts := search.DefaultOptions()
	opts.Limit = searchLimit
	opts.MinScore = searchMinScore
	if searchMinScore == 0 {
		// --min-score 0 asks for no threshold at all.
		opts.MinScore = search.MinScoreNone
	}
	opts.Sections = searchSections
	opts.Type = config.StoreType(searchStore)

	var err error
	if opts.Since, err = parseDateFlag(searchSince); err != nil {
		return err
	}
	if opts.Until, err = parseDateFlag(searchUntil); err != nil {
		return err
	}

	results, err := queryEngine.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No notes found.")
		return nil
	}

	for i, r := range results {
		when := time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04:05")
		fmt.Printf("%d. [%.3f] %s (%s, %s)\n", i+1, r.Score, r.Path, r.Type, when)
		if len(r.Sections) > 0 {
			fmt.Printf("   Sections: %s\n", strings.Join(r.Sections, ", "))
		}
		fmt.Printf("   %s\n\n", r.Excerpt)
	}
	return nil
}

// parseDateFlag turns an optional YYYY-MM-DD flag into a millisecond epoch,
// 0 meaning unbounded.
func parseDateFlag(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return t.UnixMilli(), nil
}
