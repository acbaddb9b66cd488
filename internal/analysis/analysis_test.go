package analysis

import (
	"context"
	"testing"

	"mvx/internal/extract"
	"mvx/internal/registry"
	"mvx/internal/views"
)

func TestCheckStructure(t *testing.T) {
	reserved := map[string]bool{"res.partner": true, "ir.ui.view": true}

	t.Run("reserved redefinition is a structural error", func(t *testing.T) {
		reg := registry.NewEntityRegistry()
		reg.Add(extract.ModelDocument{
			Name:  "res.partner",
			Class: "ResPartner",
			File:  "models/partner.py",
		})

		errs := CheckStructure(reg, reserved)
		if len(errs) != 1 {
			t.Fatalf("expected 1 structural error, got %+v", errs)
		}
		if errs[0].Kind != StructuralReservedRedefinition {
			t.Errorf("expected reserved_redefinition, got %s", errs[0].Kind)
		}
		if errs[0].Entity != "res.partner" {
			t.Errorf("expected entity res.partner, got %q", errs[0].Entity)
		}
	})

	t.Run("extending a reserved entity is legal", func(t *testing.T) {
		reg := registry.NewEntityRegistry()
		reg.Add(extract.ModelDocument{
			Inherits: []string{"res.partner"},
			Class:    "ResPartner",
			File:     "models/partner.py",
		})

		if errs := CheckStructure(reg, reserved); len(errs) != 0 {
			t.Fatalf("extension flagged as structural error: %+v", errs)
		}
	})

	t.Run("redefining a non-reserved entity is legal", func(t *testing.T) {
		reg := registry.NewEntityRegistry()
		reg.Add(extract.ModelDocument{Name: "x.custom", Class: "Custom"})

		if errs := CheckStructure(reg, reserved); len(errs) != 0 {
			t.Fatalf("own entity flagged as structural error: %+v", errs)
		}
	})

	t.Run("document without name or extension target", func(t *testing.T) {
		reg := registry.NewEntityRegistry()
		reg.Add(extract.ModelDocument{Class: "Orphan", File: "models/orphan.py", Line: 12})

		errs := CheckStructure(reg, reserved)
		if len(errs) != 1 || errs[0].Kind != StructuralMissingName {
			t.Fatalf("expected one missing_name error, got %+v", errs)
		}
		if errs[0].Line != 12 {
			t.Errorf("expected line 12, got %d", errs[0].Line)
		}
	})
}

func TestRun(t *testing.T) {
	entities := registry.NewEntityRegistry()
	entities.Add(extract.ModelDocument{
		Name: "x.invoice",
		File: "models/invoice.py",
		Fields: []extract.FieldDeclaration{
			{Name: "amount", Kind: extract.KindScalar, Type: extract.TypeNumeric},
			{Name: "currency", Kind: extract.KindScalar, Type: extract.TypeText},
		},
	})
	viewReg := registry.NewViewRegistry()
	viewReg.Add(views.ViewDefinition{ID: "v1", Entity: "x.invoice", Fields: refs("amount", "tax_rate")})

	result, err := Run(context.Background(), entities, viewReg, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	t.Run("finds the gap", func(t *testing.T) {
		if len(result.Gaps) != 1 || result.Gaps[0].Field != "tax_rate" {
			t.Fatalf("expected one tax_rate gap, got %+v", result.Gaps)
		}
	})

	t.Run("gap severity drives run severity", func(t *testing.T) {
		if result.Severity() != SeverityWarning {
			t.Errorf("expected warning, got %s", result.Severity())
		}
	})

	t.Run("canceled context aborts between stages", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Run(ctx, entities, viewReg, Options{}); err == nil {
			t.Fatal("expected cancellation error")
		}
	})
}

func TestResultSeverity(t *testing.T) {
	t.Run("clean result is info", func(t *testing.T) {
		r := &Result{}
		if r.Severity() != SeverityInfo {
			t.Errorf("expected info, got %s", r.Severity())
		}
	})

	t.Run("single structural error forces critical", func(t *testing.T) {
		r := &Result{StructuralErrors: []StructuralError{{Kind: StructuralMissingName}}}
		if r.Severity() != SeverityCritical {
			t.Errorf("expected critical, got %s", r.Severity())
		}
	})

	t.Run("critical gap forces critical", func(t *testing.T) {
		r := &Result{Gaps: []GapRecord{
			{Severity: SeverityWarning},
			{Severity: SeverityCritical},
		}}
		if r.Severity() != SeverityCritical {
			t.Errorf("expected critical, got %s", r.Severity())
		}
	})

	t.Run("warnings never report as critical", func(t *testing.T) {
		r := &Result{
			Duplicates:   []DuplicateFieldRecord{{Entity: "x.invoice", Field: "ref"}},
			UnboundViews: []UnboundViewWarning{{View: "v9", Entity: "x.ghost"}},
		}
		if r.Severity() != SeverityWarning {
			t.Errorf("expected warning, got %s", r.Severity())
		}
	})
}

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"info", SeverityInfo, false},
		{"warning", SeverityWarning, false},
		{"WARN", SeverityWarning, false},
		{"critical", SeverityCritical, false},
		{"fatal", SeverityInfo, true},
	}
	for _, tc := range cases {
		got, err := ParseSeverity(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.in, tc.want, got)
		}
	}
}
