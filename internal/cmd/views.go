package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mvx/internal/output"
	"mvx/internal/registry"
)

// viewsCmd represents the views command
var viewsCmd = &cobra.Command{
	Use:   "views [path]",
	Short: "Dump the view registry",
	Long: `Views scans the view sources and prints the view registry: every view
definition grouped by the entity it is bound to, with its ordered field
references.

Examples:
  mvx views                          # All views in the current directory
  mvx views --entity x.invoice       # Views bound to one entity`,
	Args: cobra.MaximumNArgs(1),
	RunE: runViews,
}

var viewsEntity string

func init() {
	rootCmd.AddCommand(viewsCmd)

	viewsCmd.Flags().StringVar(&viewsEntity, "entity", "", "Show only views bound to this entity")
}

func runViews(cmd *cobra.Command, args []string) error {
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

	cfg, err := loadConfig(workDir)
	if err != nil {
		return err
	}

	reg, err := registry.BuildViewRegistry(context.Background(),
		resolveRoots(workDir, nil, cfg.Scan.ViewRoots), cfg.Scan.Exclude)
	if err != nil {
		return err
	}

	if viewsEntity != "" {
		defs, ok := reg.Views[viewsEntity]
		if !ok {
			return fmt.Errorf("no views bound to entity: %s", viewsEntity)
		}
		return format.Encode(os.Stdout, defs)
	}

	grouped := make(map[string]interface{}, len(reg.Views))
	for _, name := range reg.EntityNames() {
		grouped[name] = reg.Views[name]
	}
	return format.Encode(os.Stdout, grouped)
}
