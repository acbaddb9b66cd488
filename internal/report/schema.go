// Package report aggregates analysis findings into the validation report.
//
// The report is the engine's single output artifact: counts per finding
// class, a per-entity breakdown, the findings themselves, and an overall
// severity that downstream deployment gating consumes through the process
// exit code.
package report

import (
	"time"

	"mvx/internal/analysis"
	"mvx/internal/registry"
	"mvx/internal/synth"
)

// Report is the aggregated result of one analysis run.
type Report struct {
	// GeneratedAt is the timestamp when the report was generated.
	GeneratedAt time.Time `yaml:"generated_at" json:"generated_at"`

	// ModelRoots and ViewRoots record the scanned input paths.
	ModelRoots []string `yaml:"model_roots,omitempty" json:"model_roots,omitempty"`
	ViewRoots  []string `yaml:"view_roots,omitempty" json:"view_roots,omitempty"`

	// Summary holds the per-class finding counts and overall severity.
	Summary Summary `yaml:"summary" json:"summary"`

	// Entities is the per-entity breakdown, ordered by entity name.
	Entities []EntityBreakdown `yaml:"entities,omitempty" json:"entities,omitempty"`

	// Findings holds the full finding records.
	Findings *analysis.Result `yaml:"findings" json:"findings"`

	// Proposals holds synthesized field proposals (propose/apply modes).
	Proposals []synth.SynthesizedField `yaml:"proposals,omitempty" json:"proposals,omitempty"`
}

// Summary contains aggregate statistics for the run.
type Summary struct {
	EntitiesScanned       int               `yaml:"entities_scanned" json:"entities_scanned"`
	ViewsScanned          int               `yaml:"views_scanned" json:"views_scanned"`
	StructuralErrors      int               `yaml:"structural_errors" json:"structural_errors"`
	DuplicateFields       int               `yaml:"duplicate_fields" json:"duplicate_fields"`
	Gaps                  int               `yaml:"gaps" json:"gaps"`
	UnimplementedComputes int               `yaml:"unimplemented_computes" json:"unimplemented_computes"`
	UnboundViews          int               `yaml:"unbound_views" json:"unbound_views"`
	DocumentErrors        int               `yaml:"document_errors" json:"document_errors"`
	Proposals             int               `yaml:"proposals,omitempty" json:"proposals,omitempty"`
	Severity              analysis.Severity `yaml:"severity" json:"severity"`
}

// EntityBreakdown is the per-entity slice of the summary.
type EntityBreakdown struct {
	Entity                string `yaml:"entity" json:"entity"`
	Fields                int    `yaml:"fields" json:"fields"`
	Views                 int    `yaml:"views" json:"views"`
	Gaps                  int    `yaml:"gaps,omitempty" json:"gaps,omitempty"`
	DuplicateFields       int    `yaml:"duplicate_fields,omitempty" json:"duplicate_fields,omitempty"`
	UnimplementedComputes int    `yaml:"unimplemented_computes,omitempty" json:"unimplemented_computes,omitempty"`
}

// Build assembles the report from the analysis result and the registries.
func Build(result *analysis.Result, proposals []synth.SynthesizedField, entities *registry.EntityRegistry, viewReg *registry.ViewRegistry) *Report {
	r := &Report{
		GeneratedAt: time.Now().UTC(),
		Findings:    result,
		Proposals:   proposals,
	}

	r.Summary = Summary{
		EntitiesScanned:       len(entities.Entities),
		ViewsScanned:          viewReg.ViewCount(),
		StructuralErrors:      len(result.StructuralErrors),
		DuplicateFields:       len(result.Duplicates),
		Gaps:                  len(result.Gaps),
		UnimplementedComputes: len(result.Computes),
		UnboundViews:          len(result.UnboundViews),
		DocumentErrors:        len(result.DocumentErrors),
		Proposals:             len(proposals),
		Severity:              result.Severity(),
	}

	gapsByEntity := make(map[string]int)
	for _, g := range result.Gaps {
		gapsByEntity[g.Entity]++
	}
	dupsByEntity := make(map[string]int)
	for _, d := range result.Duplicates {
		dupsByEntity[d.Entity]++
	}
	computesByEntity := make(map[string]int)
	for _, c := range result.Computes {
		computesByEntity[c.Entity]++
	}

	for _, name := range entities.Names() {
		r.Entities = append(r.Entities, EntityBreakdown{
			Entity:                name,
			Fields:                len(result.Resolved[name]),
			Views:                 len(viewReg.Views[name]),
			Gaps:                  gapsByEntity[name],
			DuplicateFields:       dupsByEntity[name],
			UnimplementedComputes: computesByEntity[name],
		})
	}

	return r
}

// ExitCode maps the report severity to the process exit status consumed by
// deployment gating: 0 = clean, 1 = warnings only, 2 = at least one critical
// finding. Critical always outranks warnings.
func (r *Report) ExitCode() int {
	switch r.Summary.Severity {
	case analysis.SeverityCritical:
		return 2
	case analysis.SeverityWarning:
		return 1
	default:
		return 0
	}
}
