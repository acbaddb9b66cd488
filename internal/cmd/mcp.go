package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mvx/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [path]",
	Short: "Serve analysis tools over the Model Context Protocol",
	Long: `MCP starts a Model Context Protocol server on stdio, exposing the
consistency analysis to AI agents as tools:

  mvx_analyze    run the full analysis and return the report
  mvx_gaps       list missing-field gaps, optionally for one entity
  mvx_entities   dump the entity registry

Apply mode is deliberately not exposed over MCP; writing into model sources
stays behind the CLI's explicit --mode apply.

Examples:
  mvx mcp                            # Serve for the current directory
  mvx mcp ./addons/records           # Serve for a specific addon`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	workDir := "."
	if len(args) > 0 {
		workDir = args[0]
	}
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	server, err := mcp.New(mcp.Config{WorkDir: absDir})
	if err != nil {
		return err
	}
	return server.ServeStdio()
}
