// Package pipeline wires the analysis stages into one runnable engine.
//
// Data flows strictly forward: sources are scanned into the two registries,
// the registries are analyzed, gaps are turned into proposals, and the
// findings are aggregated into the report. The model and view scans share no
// state and run in parallel; their cross-reference happens only at the
// analysis stage, after both registries are complete.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"mvx/internal/analysis"
	"mvx/internal/apply"
	"mvx/internal/config"
	"mvx/internal/registry"
	"mvx/internal/report"
	"mvx/internal/synth"
)

// Mode selects how far the pipeline runs.
type Mode string

const (
	// ModeAnalyze runs analysis only.
	ModeAnalyze Mode = "analyze"
	// ModePropose additionally synthesizes field proposals for gaps.
	ModePropose Mode = "propose"
	// ModeApply additionally writes non-confirmation proposals into the
	// model sources.
	ModeApply Mode = "apply"
)

// ParseMode parses a mode string.
// Accepts: "analyze", "propose", "apply" (case-insensitive)
// Returns an error for invalid mode values.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "analyze", "":
		return ModeAnalyze, nil
	case "propose":
		return ModePropose, nil
	case "apply":
		return ModeApply, nil
	default:
		return "", fmt.Errorf("invalid mode: %q (expected analyze, propose, or apply)", s)
	}
}

// Input bundles the resolved input paths for one run.
type Input struct {
	// ModelRoots are the model-source roots to scan.
	ModelRoots []string
	// ViewRoots are the view-source roots to scan.
	ViewRoots []string
	// Exclude holds glob patterns for paths to skip.
	Exclude []string
}

// Outcome is the full result of one pipeline run.
type Outcome struct {
	Report   *report.Report
	Entities *registry.EntityRegistry
	Views    *registry.ViewRegistry
	Applied  *apply.Result
}

// Run executes the pipeline: parallel registry builds, analysis, and, per
// mode, synthesis and apply. The report always reflects the pre-apply state;
// apply results are returned separately so re-running the analysis remains
// the way to confirm the gaps are closed.
func Run(ctx context.Context, cfg *config.Config, in Input, mode Mode) (*Outcome, error) {
	var (
		entities *registry.EntityRegistry
		viewReg  *registry.ViewRegistry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entities, err = registry.BuildEntityRegistry(gctx, in.ModelRoots, in.Exclude)
		return err
	})
	g.Go(func() error {
		var err error
		viewReg, err = registry.BuildViewRegistry(gctx, in.ViewRoots, in.Exclude)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := analysis.Run(ctx, entities, viewReg, analysis.Options{
		Reserved:      cfg.ReservedSet(),
		Tiebreak:      analysis.Tiebreak(cfg.Analysis.DuplicateTiebreak),
		CriticalViews: cfg.Analysis.CriticalViews,
	})
	if err != nil {
		return nil, err
	}

	var proposals []synth.SynthesizedField
	if mode == ModePropose || mode == ModeApply {
		proposals = synth.New(cfg.Rules(), entities).Propose(result.Gaps)
	}

	out := &Outcome{
		Report:   report.Build(result, proposals, entities, viewReg),
		Entities: entities,
		Views:    viewReg,
	}
	out.Report.ModelRoots = in.ModelRoots
	out.Report.ViewRoots = in.ViewRoots

	if mode == ModeApply {
		applied, err := apply.New().Apply(entities, proposals)
		if err != nil {
			return nil, err
		}
		out.Applied = applied
	}

	return out, nil
}
