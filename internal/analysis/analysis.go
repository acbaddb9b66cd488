package analysis

import (
	"context"

	"mvx/internal/extract"
	"mvx/internal/registry"
)

// Options configures an analysis run. Zero value means defaults.
type Options struct {
	// Reserved is the framework-reserved entity name set. Redefining any
	// of these is a StructuralError.
	Reserved map[string]bool

	// Tiebreak selects the duplicate tie-break policy (default first).
	Tiebreak Tiebreak

	// CriticalViews holds glob patterns on view IDs; gaps referenced by a
	// matching view escalate to critical.
	CriticalViews []string
}

// Result aggregates all findings of one analysis run.
type Result struct {
	StructuralErrors []StructuralError            `yaml:"structural_errors,omitempty" json:"structural_errors,omitempty"`
	Duplicates       []DuplicateFieldRecord       `yaml:"duplicates,omitempty" json:"duplicates,omitempty"`
	Gaps             []GapRecord                  `yaml:"gaps,omitempty" json:"gaps,omitempty"`
	Computes         []UnimplementedComputeRecord `yaml:"unimplemented_computes,omitempty" json:"unimplemented_computes,omitempty"`
	UnboundViews     []UnboundViewWarning         `yaml:"unbound_views,omitempty" json:"unbound_views,omitempty"`
	DocumentErrors   []registry.DocumentError     `yaml:"document_errors,omitempty" json:"document_errors,omitempty"`

	// Resolved holds the canonical declarations per entity after duplicate
	// resolution. The entity registry itself is never mutated.
	Resolved map[string][]extract.FieldDeclaration `yaml:"-" json:"-"`
}

// Severity returns the overall run severity: the highest severity among all
// findings. Any StructuralError forces critical, independent of how few
// instances occur.
func (r *Result) Severity() Severity {
	severity := SeverityInfo
	if len(r.StructuralErrors) > 0 {
		return SeverityCritical
	}
	for _, gap := range r.Gaps {
		severity = Max(severity, gap.Severity)
	}
	if len(r.Duplicates) > 0 || len(r.Computes) > 0 || len(r.UnboundViews) > 0 || len(r.DocumentErrors) > 0 {
		severity = Max(severity, SeverityWarning)
	}
	return severity
}

// Run executes the analysis stages over complete registries: structural
// checks, duplicate resolution, then gap and compute analysis. Duplicate
// resolution must precede gap analysis; unresolved duplicates would corrupt
// existence checks.
//
// The pipeline is cancellable between stages; individual stages run to
// completion once started.
func Run(ctx context.Context, entities *registry.EntityRegistry, viewReg *registry.ViewRegistry, opts Options) (*Result, error) {
	tiebreak := opts.Tiebreak
	if tiebreak == "" {
		tiebreak = TiebreakFirst
	}

	result := &Result{}
	result.DocumentErrors = append(result.DocumentErrors, entities.Errors...)
	result.DocumentErrors = append(result.DocumentErrors, viewReg.Errors...)

	result.StructuralErrors = CheckStructure(entities, opts.Reserved)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved, duplicates := ResolveAll(entities, tiebreak)
	result.Resolved = resolved
	result.Duplicates = duplicates
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gaps, unbound := AnalyzeGaps(entities, viewReg, resolved, opts.CriticalViews)
	result.Gaps = gaps
	result.UnboundViews = unbound
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Computes = AnalyzeComputes(entities, resolved)
	return result, nil
}
