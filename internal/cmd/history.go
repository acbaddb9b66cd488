package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mvx/internal/config"
	"mvx/internal/history"
	"mvx/internal/output"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "List recorded analysis runs",
	Long: `History lists the analysis runs recorded in .mvx/history.db, newest first.

Examples:
  mvx history                        # Recent runs
  mvx history --limit 5              # Only the five most recent
  mvx history diff                   # Findings added/resolved since last run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

// historyDiffCmd represents the history diff subcommand
var historyDiffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Compare the findings of the two latest runs",
	Long: `Diff compares the two most recent recorded runs and lists the findings
introduced and resolved between them. The analyzer's deterministic output
order makes this comparison stable across runs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryDiff,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyDiffCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
}

// openHistory locates the project's .mvx directory and opens the database.
func openHistory(args []string) (*history.History, error) {
	workDir := "."
	if len(args) > 0 {
		workDir = args[0]
	}
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	mvxDir, err := config.FindConfigDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("no .mvx directory found: run 'mvx analyze' first")
	}
	return history.Open(mvxDir)
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	db, err := openHistory(args)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no recorded runs")
		return nil
	}
	return format.Encode(os.Stdout, runs)
}

func runHistoryDiff(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	db, err := openHistory(args)
	if err != nil {
		return err
	}
	defer db.Close()

	diff, err := db.DiffLatest()
	if err != nil {
		return err
	}
	return format.Encode(os.Stdout, diff)
}
