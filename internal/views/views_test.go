package views

import (
	"strings"
	"testing"
)

const testViewSource = `<?xml version="1.0" encoding="utf-8"?>
<odoo>
    <record id="records_box_view_form" model="ir.ui.view">
        <field name="name">records.box.form</field>
        <field name="model">records.box</field>
        <field name="arch" type="xml">
            <form string="Storage Box">
                <group>
                    <field name="name"/>
                    <field name="partner_id"/>
                    <field name="destruction_date"/>
                    <field name="name"/>
                </group>
            </form>
        </field>
    </record>

    <record id="records_box_view_tree" model="ir.ui.view">
        <field name="model">records.box</field>
        <field name="arch" type="xml">
            <tree>
                <field name="name"/>
                <field name="state"/>
            </tree>
        </field>
    </record>

    <record id="records_box_action" model="ir.actions.act_window">
        <field name="name">Boxes</field>
        <field name="res_model">records.box</field>
    </record>
</odoo>
`

func TestParse(t *testing.T) {
	defs, err := Parse(strings.NewReader(testViewSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	t.Run("finds only ui view records", func(t *testing.T) {
		if len(defs) != 2 {
			t.Fatalf("expected 2 view definitions, got %d", len(defs))
		}
		if defs[0].ID != "records_box_view_form" {
			t.Errorf("expected id records_box_view_form, got %q", defs[0].ID)
		}
		if defs[1].ID != "records_box_view_tree" {
			t.Errorf("expected id records_box_view_tree, got %q", defs[1].ID)
		}
	})

	t.Run("binds views to entities", func(t *testing.T) {
		for _, d := range defs {
			if d.Entity != "records.box" {
				t.Errorf("view %s: expected entity records.box, got %q", d.ID, d.Entity)
			}
		}
	})

	t.Run("collects arch field references in document order", func(t *testing.T) {
		got := defs[0].FieldNames()
		want := []string{"name", "partner_id", "destruction_date", "name"}
		if len(got) != len(want) {
			t.Fatalf("expected %d references, got %v", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("reference %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("excludes metadata fields outside arch", func(t *testing.T) {
		for _, name := range defs[0].FieldNames() {
			if name == "model" || name == "arch" {
				t.Errorf("metadata field %q leaked into references", name)
			}
		}
	})
}

func TestParse_MalformedMarkup(t *testing.T) {
	_, err := Parse(strings.NewReader(`<odoo><record model="ir.ui.view">`))
	if err == nil {
		t.Fatal("expected error for unclosed markup")
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	defs, err := Parse(strings.NewReader(`<odoo></odoo>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("expected no definitions, got %d", len(defs))
	}
}
