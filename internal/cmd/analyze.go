package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mvx/internal/config"
	"mvx/internal/history"
	"mvx/internal/output"
	"mvx/internal/pipeline"
	"mvx/internal/report"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze model-view consistency and emit the report",
	Long: `Analyze scans the model and view sources under the given directory (or the
current directory if none given) and reports every inconsistency between them.

The analysis pipeline:
  1. Parses model sources into the entity registry
  2. Parses view sources into the view registry (in parallel with step 1)
  3. Resolves duplicate field declarations to one canonical variant
  4. Computes gaps: fields referenced by views but never declared
  5. Checks computed fields for a backing compute method
  6. Aggregates everything into one report with an overall severity

Modes:
  analyze   findings only (default)
  propose   also synthesize corrective field declarations for gaps
  apply     also write non-confirmation proposals into the model sources

The structured report goes to --out (or stdout); a human-readable summary
goes to stderr. Each run is recorded in .mvx/history.db so successive
reports can be diffed with 'mvx history diff'.

Exit codes:
  0 = no findings above informational
  1 = warnings only
  2 = at least one critical finding (always outranks warnings)

Examples:
  mvx analyze                          # Analyze current directory
  mvx analyze ./addons/records         # Analyze a specific addon
  mvx analyze --models models --views views
  mvx analyze --mode propose --out report.yaml
  mvx analyze --mode apply             # Write accepted proposals back`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

// Command-line flags
var (
	analyzeModels    []string
	analyzeViews     []string
	analyzeOut       string
	analyzeMode      string
	analyzeNoHistory bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Analyze-specific flags
	analyzeCmd.Flags().StringSliceVar(&analyzeModels, "models", nil, "Model-source root paths (default: from config)")
	analyzeCmd.Flags().StringSliceVar(&analyzeViews, "views", nil, "View-source root paths (default: from config)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "Report output path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "analyze", "Pipeline mode (analyze|propose|apply)")
	analyzeCmd.Flags().BoolVar(&analyzeNoHistory, "no-history", false, "Do not record this run in .mvx/history.db")
}

// runAnalyze implements the analyze command logic
func runAnalyze(cmd *cobra.Command, args []string) error {
	workDir := "."
	if len(args) > 0 {
		workDir = args[0]
	}
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	workDir = absDir

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	mode, err := pipeline.ParseMode(analyzeMode)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(workDir)
	if err != nil {
		return err
	}

	in := pipeline.Input{
		ModelRoots: resolveRoots(workDir, analyzeModels, cfg.Scan.ModelRoots),
		ViewRoots:  resolveRoots(workDir, analyzeViews, cfg.Scan.ViewRoots),
		Exclude:    cfg.Scan.Exclude,
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "scanning models: %v\n", in.ModelRoots)
		fmt.Fprintf(os.Stderr, "scanning views: %v\n", in.ViewRoots)
	}

	out, err := pipeline.Run(context.Background(), cfg, in, mode)
	if err != nil {
		return err
	}

	if err := writeReport(out.Report, format); err != nil {
		return err
	}

	if !quiet {
		out.Report.RenderSummary(os.Stderr)
		if out.Applied != nil {
			fmt.Fprintf(os.Stderr, "applied %d proposals, skipped %d\n",
				len(out.Applied.Applied), len(out.Applied.Skipped))
			for _, s := range out.Applied.Skipped {
				fmt.Fprintf(os.Stderr, "  skipped %s.%s: %s\n",
					s.Proposal.Entity, s.Proposal.Field, s.Reason)
			}
		}
	}

	if !analyzeNoHistory {
		if err := recordRun(workDir, out.Report); err != nil {
			// History is bookkeeping; a failure must not mask findings.
			fmt.Fprintf(os.Stderr, "warning: recording run history: %v\n", err)
		}
	}

	if code := out.Report.ExitCode(); code != 0 {
		os.Exit(code)
	}
	return nil
}

// writeReport serializes the report to --out or stdout.
func writeReport(r *report.Report, format output.Format) error {
	if analyzeOut == "" {
		return format.Encode(os.Stdout, r)
	}

	f, err := os.Create(analyzeOut)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()
	if err := format.Encode(f, r); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// recordRun stores the run in the project's history database.
func recordRun(workDir string, r *report.Report) error {
	mvxDir, err := config.EnsureConfigDir(workDir)
	if err != nil {
		return err
	}
	db, err := history.Open(mvxDir)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.RecordRun(r)
	return err
}

// resolveRoots picks the flag roots when given, the config roots otherwise,
// and joins relative paths onto the work directory.
func resolveRoots(workDir string, flagRoots, cfgRoots []string) []string {
	roots := flagRoots
	if len(roots) == 0 {
		roots = cfgRoots
	}
	resolved := make([]string, 0, len(roots))
	for _, root := range roots {
		if filepath.IsAbs(root) {
			resolved = append(resolved, root)
			continue
		}
		resolved = append(resolved, filepath.Join(workDir, root))
	}
	return resolved
}
