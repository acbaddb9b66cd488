// Package cmd contains all CLI commands for mvx.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mvx/internal/config"
)

var (
	// Version is the current version of mvx
	Version = "0.1.0"

	// Global flags
	verbose      bool
	quiet        bool
	configPath   string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mvx",
	Short: "Model-view consistency checker for framework addons",
	Long: `mvx keeps declarative views consistent with the model layer they reference.

It scans an addon's model sources (Python model declarations) and view
sources (XML view definitions), builds cross-referenced inventories of both,
and reports the inconsistencies between them:

  - redefinitions of framework-reserved models (critical)
  - duplicate field declarations, resolved to one canonical variant
  - fields referenced by views but missing from the model (gaps)
  - computed fields with no backing compute method
  - views bound to unknown models

For gaps, mvx can synthesize corrective field declarations from naming
heuristics and, on request, write them back into the model sources. Proposals
are never applied without the explicit apply mode.

Exit codes (analyze):
  0 = no findings above informational
  1 = warnings only
  2 = at least one critical finding

Examples:
  mvx analyze                        # Analyze the current directory
  mvx analyze ./addons/records       # Analyze a specific addon
  mvx analyze --mode propose         # Also synthesize field proposals
  mvx analyze --mode apply           # Write proposals into model sources
  mvx entities                       # Dump the entity registry
  mvx history diff                   # Compare the two latest runs

See 'mvx <command> --help' for command-specific options.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mvx version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mvx %s\n", Version)
	},
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the human-readable summary")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .mvx/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "yaml", "Output format (yaml|json)")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads configuration for the given work directory, honoring the
// global --config override.
func loadConfig(workDir string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load(workDir)
}
