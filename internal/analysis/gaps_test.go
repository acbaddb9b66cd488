package analysis

import (
	"reflect"
	"testing"

	"mvx/internal/extract"
	"mvx/internal/registry"
	"mvx/internal/views"
)

func invoiceRegistry() *registry.EntityRegistry {
	reg := registry.NewEntityRegistry()
	reg.Add(extract.ModelDocument{
		Name:  "x.invoice",
		Class: "Invoice",
		File:  "models/invoice.py",
		Fields: []extract.FieldDeclaration{
			{Name: "amount", Kind: extract.KindScalar, Type: extract.TypeNumeric},
			{Name: "currency", Kind: extract.KindScalar, Type: extract.TypeText},
		},
	})
	return reg
}

func viewRegistry(defs ...views.ViewDefinition) *registry.ViewRegistry {
	reg := registry.NewViewRegistry()
	for _, def := range defs {
		reg.Add(def)
	}
	return reg
}

func refs(names ...string) []views.FieldReference {
	out := make([]views.FieldReference, len(names))
	for i, n := range names {
		out[i] = views.FieldReference{Name: n}
	}
	return out
}

func TestAnalyzeGaps(t *testing.T) {
	t.Run("reports referenced but undeclared fields", func(t *testing.T) {
		entities := invoiceRegistry()
		viewReg := viewRegistry(views.ViewDefinition{
			ID:     "v1",
			Entity: "x.invoice",
			Fields: refs("amount", "tax_rate"),
		})
		resolved, _ := ResolveAll(entities, TiebreakFirst)

		gaps, unbound := AnalyzeGaps(entities, viewReg, resolved, nil)
		if len(unbound) != 0 {
			t.Fatalf("unexpected unbound views: %+v", unbound)
		}
		if len(gaps) != 1 {
			t.Fatalf("expected exactly 1 gap, got %+v", gaps)
		}
		gap := gaps[0]
		if gap.Entity != "x.invoice" || gap.Field != "tax_rate" {
			t.Errorf("expected gap (x.invoice, tax_rate), got (%s, %s)", gap.Entity, gap.Field)
		}
		if !reflect.DeepEqual(gap.Views, []string{"v1"}) {
			t.Errorf("expected views [v1], got %v", gap.Views)
		}
		if gap.Severity != SeverityWarning {
			t.Errorf("expected warning severity, got %s", gap.Severity)
		}
	})

	t.Run("one record per entity and field across many views", func(t *testing.T) {
		entities := invoiceRegistry()
		viewReg := viewRegistry(
			views.ViewDefinition{ID: "v1", Entity: "x.invoice", Fields: refs("tax_rate")},
			views.ViewDefinition{ID: "v2", Entity: "x.invoice", Fields: refs("tax_rate", "tax_rate")},
			views.ViewDefinition{ID: "v3", Entity: "x.invoice", Fields: refs("amount", "tax_rate")},
		)
		resolved, _ := ResolveAll(entities, TiebreakFirst)

		gaps, _ := AnalyzeGaps(entities, viewReg, resolved, nil)
		if len(gaps) != 1 {
			t.Fatalf("expected 1 aggregated gap, got %+v", gaps)
		}
		if !reflect.DeepEqual(gaps[0].Views, []string{"v1", "v2", "v3"}) {
			t.Errorf("expected views [v1 v2 v3], got %v", gaps[0].Views)
		}
	})

	t.Run("critical view patterns escalate severity", func(t *testing.T) {
		entities := invoiceRegistry()
		viewReg := viewRegistry(
			views.ViewDefinition{ID: "invoice_form_main", Entity: "x.invoice", Fields: refs("tax_rate")},
			views.ViewDefinition{ID: "invoice_debug", Entity: "x.invoice", Fields: refs("notes")},
		)
		resolved, _ := ResolveAll(entities, TiebreakFirst)

		gaps, _ := AnalyzeGaps(entities, viewReg, resolved, []string{"*_form_*"})
		bySeverity := make(map[string]Severity)
		for _, g := range gaps {
			bySeverity[g.Field] = g.Severity
		}
		if bySeverity["tax_rate"] != SeverityCritical {
			t.Errorf("tax_rate: expected critical, got %s", bySeverity["tax_rate"])
		}
		if bySeverity["notes"] != SeverityWarning {
			t.Errorf("notes: expected warning, got %s", bySeverity["notes"])
		}
	})

	t.Run("views bound to unknown entities become warnings not gaps", func(t *testing.T) {
		entities := invoiceRegistry()
		viewReg := viewRegistry(views.ViewDefinition{
			ID:     "ghost_view",
			Entity: "x.ghost",
			File:   "views/ghost.xml",
			Fields: refs("anything"),
		})
		resolved, _ := ResolveAll(entities, TiebreakFirst)

		gaps, unbound := AnalyzeGaps(entities, viewReg, resolved, nil)
		if len(gaps) != 0 {
			t.Fatalf("unbound views must not contribute gaps, got %+v", gaps)
		}
		if len(unbound) != 1 || unbound[0].View != "ghost_view" || unbound[0].Entity != "x.ghost" {
			t.Fatalf("expected one unbound warning for ghost_view, got %+v", unbound)
		}
	})

	t.Run("deterministic order across runs", func(t *testing.T) {
		entities := invoiceRegistry()
		viewReg := viewRegistry(views.ViewDefinition{
			ID:     "v1",
			Entity: "x.invoice",
			Fields: refs("zeta", "alpha", "midway"),
		})
		resolved, _ := ResolveAll(entities, TiebreakFirst)

		first, _ := AnalyzeGaps(entities, viewReg, resolved, nil)
		second, _ := AnalyzeGaps(entities, viewReg, resolved, nil)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("gap order not stable:\nfirst:  %+v\nsecond: %+v", first, second)
		}
		var fields []string
		for _, g := range first {
			fields = append(fields, g.Field)
		}
		if !reflect.DeepEqual(fields, []string{"alpha", "midway", "zeta"}) {
			t.Errorf("expected lexicographic field order, got %v", fields)
		}
	})
}

func TestAnalyzeComputes(t *testing.T) {
	reg := registry.NewEntityRegistry()
	reg.Add(extract.ModelDocument{
		Name:    "x.invoice",
		Methods: []string{"_compute_total"},
		Fields: []extract.FieldDeclaration{
			{Name: "total", Kind: extract.KindComputed, Type: extract.TypeNumeric, Compute: "_compute_total"},
			{Name: "tax_total", Kind: extract.KindComputed, Type: extract.TypeNumeric, Compute: "_compute_tax_total"},
			{Name: "amount", Kind: extract.KindScalar, Type: extract.TypeNumeric},
		},
	})
	resolved, _ := ResolveAll(reg, TiebreakFirst)

	records := AnalyzeComputes(reg, resolved)
	if len(records) != 1 {
		t.Fatalf("expected 1 unimplemented compute, got %+v", records)
	}
	if records[0].Field != "tax_total" || records[0].Compute != "_compute_tax_total" {
		t.Errorf("expected tax_total/_compute_tax_total, got %+v", records[0])
	}
}
