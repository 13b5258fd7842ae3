package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read [path]",
	Short: "Print a note's raw content",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

func runRead(_ *cobra.Command, args []string) error {
	content, found, err := queryEngine.ReadEntry(args[0])
	if err != nil {
		return fmt.Errorf("failed to read note: %w", err)
	}
	if !found {
		return fmt.Errorf("no note exists at %s", args[0])
	}
	fmt.Print(content)
	return nil
}
