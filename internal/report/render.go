package report

import (
	"fmt"
	"io"
	"strings"
)

// RenderSummary writes the human-readable summary of the report.
// The structured report goes to the output path; this goes to the terminal.
func (r *Report) RenderSummary(w io.Writer) {
	fmt.Fprintf(w, "mvx analysis: %d entities, %d views scanned\n",
		r.Summary.EntitiesScanned, r.Summary.ViewsScanned)

	findings := r.Summary.StructuralErrors + r.Summary.Gaps + r.Summary.DuplicateFields +
		r.Summary.UnimplementedComputes + r.Summary.UnboundViews + r.Summary.DocumentErrors
	if findings == 0 {
		fmt.Fprintln(w, "no findings")
		return
	}

	for _, e := range r.Findings.StructuralErrors {
		fmt.Fprintf(w, "  CRITICAL %s %s\n", e.Kind, e.Message)
	}
	for _, g := range r.Findings.Gaps {
		fmt.Fprintf(w, "  %s gap: %s.%s referenced by %s\n",
			strings.ToUpper(g.Severity.String()), g.Entity, g.Field, strings.Join(g.Views, ", "))
	}
	for _, d := range r.Findings.Duplicates {
		fmt.Fprintf(w, "  WARNING duplicate: %s.%s declared %d times, kept %s variant\n",
			d.Entity, d.Field, len(d.Discarded)+1, d.Canonical.Type)
	}
	for _, c := range r.Findings.Computes {
		fmt.Fprintf(w, "  WARNING unimplemented compute: %s.%s (compute=%q)\n",
			c.Entity, c.Field, c.Compute)
	}
	for _, u := range r.Findings.UnboundViews {
		fmt.Fprintf(w, "  WARNING unbound view: %s references unknown entity %s\n",
			u.View, u.Entity)
	}
	for _, e := range r.Findings.DocumentErrors {
		fmt.Fprintf(w, "  WARNING unparseable document: %s: %s\n", e.File, e.Message)
	}

	if r.Summary.Proposals > 0 {
		fmt.Fprintf(w, "%d field proposals synthesized\n", r.Summary.Proposals)
	}
	fmt.Fprintf(w, "severity: %s\n", r.Summary.Severity)
}
