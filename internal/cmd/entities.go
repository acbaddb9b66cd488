package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mvx/internal/analysis"
	"mvx/internal/extract"
	"mvx/internal/output"
	"mvx/internal/registry"
)

// entitiesCmd represents the entities command
var entitiesCmd = &cobra.Command{
	Use:   "entities [path]",
	Short: "Dump the entity registry",
	Long: `Entities scans the model sources and prints the entity registry: every
model name, whether it redefines or extends, its extension targets, and its
field declarations after duplicate resolution.

Examples:
  mvx entities                       # All entities in the current directory
  mvx entities --name x.invoice      # One entity
  mvx entities --raw                 # Show declarations before resolution`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEntities,
}

var (
	entitiesName string
	entitiesRaw  bool
)

func init() {
	rootCmd.AddCommand(entitiesCmd)

	entitiesCmd.Flags().StringVar(&entitiesName, "name", "", "Show only the named entity")
	entitiesCmd.Flags().BoolVar(&entitiesRaw, "raw", false, "Show declarations before duplicate resolution")
}

// entityDump is the printable form of one registry entry.
type entityDump struct {
	Entity *registry.Entity           `yaml:"entity" json:"entity"`
	Fields []extract.FieldDeclaration `yaml:"resolved_fields,omitempty" json:"resolved_fields,omitempty"`
}

func runEntities(cmd *cobra.Command, args []string) error {
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

	reg, err := registry.BuildEntityRegistry(context.Background(),
		resolveRoots(workDir, nil, cfg.Scan.ModelRoots), cfg.Scan.Exclude)
	if err != nil {
		return err
	}

	if entitiesName != "" {
		ent := reg.Get(entitiesName)
		if ent == nil {
			return fmt.Errorf("unknown entity: %s", entitiesName)
		}
		return format.Encode(os.Stdout, dumpEntity(ent, cfg.Analysis.DuplicateTiebreak))
	}

	dumps := make([]entityDump, 0, len(reg.Entities))
	for _, name := range reg.Names() {
		dumps = append(dumps, dumpEntity(reg.Entities[name], cfg.Analysis.DuplicateTiebreak))
	}
	return format.Encode(os.Stdout, dumps)
}

func dumpEntity(ent *registry.Entity, tiebreak string) entityDump {
	d := entityDump{Entity: ent}
	if !entitiesRaw {
		d.Fields, _ = analysis.ResolveDuplicates(ent, analysis.Tiebreak(tiebreak))
	}
	return d
}
