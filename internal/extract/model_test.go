package extract

import (
	"context"
	"testing"

	"mvx/internal/parser"
)

const testModelSource = `from odoo import api, fields, models


class RecordsBox(models.Model):
    _name = 'records.box'
    _description = 'Records Storage Box'

    name = fields.Char(string="Box Number", required=True)
    active = fields.Boolean(default=True)
    partner_id = fields.Many2one('res.partner', string="Customer")
    document_ids = fields.One2many('records.document', 'box_id')
    destruction_date = fields.Date(string="Destruction Date")
    state = fields.Selection(selection=[('draft', 'Draft'), ('stored', 'Stored')])
    document_count = fields.Integer(compute='_compute_document_count')

    @api.depends('document_ids')
    def _compute_document_count(self):
        for record in self:
            record.document_count = len(record.document_ids)

    def action_archive(self):
        self.active = False


class ResPartner(models.Model):
    _inherit = 'res.partner'

    box_ids = fields.One2many('records.box', 'partner_id')


class BoxHelper:
    def help(self):
        return None
`

func parseSource(t *testing.T, source string) *parser.ParseResult {
	t.Helper()
	p := parser.New()
	t.Cleanup(p.Close)

	result, err := p.Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	t.Cleanup(result.Close)
	return result
}

func TestExtractModels(t *testing.T) {
	result := parseSource(t, testModelSource)
	docs := NewModelExtractor(result).ExtractModels()

	if len(docs) != 2 {
		t.Fatalf("expected 2 model documents, got %d", len(docs))
	}

	t.Run("extracts model declaration", func(t *testing.T) {
		box := docs[0]
		if box.Name != "records.box" {
			t.Errorf("expected name records.box, got %q", box.Name)
		}
		if box.IsExtension() {
			t.Error("records.box should not be an extension")
		}
		if box.EntityName() != "records.box" {
			t.Errorf("expected entity name records.box, got %q", box.EntityName())
		}
		if len(box.Fields) != 7 {
			t.Fatalf("expected 7 fields, got %d", len(box.Fields))
		}
	})

	t.Run("classifies field types", func(t *testing.T) {
		box := docs[0]
		want := map[string]FieldType{
			"name":             TypeText,
			"active":           TypeBoolean,
			"partner_id":       TypeMany2one,
			"document_ids":     TypeOne2many,
			"destruction_date": TypeDatetime,
			"state":            TypeSelection,
			"document_count":   TypeNumeric,
		}
		for _, f := range box.Fields {
			if want[f.Name] != f.Type {
				t.Errorf("field %s: expected type %s, got %s", f.Name, want[f.Name], f.Type)
			}
		}
	})

	t.Run("classifies field kinds", func(t *testing.T) {
		box := docs[0]
		kinds := make(map[string]FieldKind)
		for _, f := range box.Fields {
			kinds[f.Name] = f.Kind
		}
		if kinds["partner_id"] != KindRelation {
			t.Errorf("partner_id: expected relation, got %s", kinds["partner_id"])
		}
		if kinds["document_count"] != KindComputed {
			t.Errorf("document_count: expected computed, got %s", kinds["document_count"])
		}
		if kinds["name"] != KindScalar {
			t.Errorf("name: expected scalar, got %s", kinds["name"])
		}
	})

	t.Run("captures compute reference and comodel", func(t *testing.T) {
		box := docs[0]
		for _, f := range box.Fields {
			switch f.Name {
			case "document_count":
				if f.Compute != "_compute_document_count" {
					t.Errorf("expected compute _compute_document_count, got %q", f.Compute)
				}
			case "partner_id":
				if f.Comodel != "res.partner" {
					t.Errorf("expected comodel res.partner, got %q", f.Comodel)
				}
			}
		}
	})

	t.Run("captures methods including decorated", func(t *testing.T) {
		box := docs[0]
		if !box.HasMethod("_compute_document_count") {
			t.Error("expected _compute_document_count method")
		}
		if !box.HasMethod("action_archive") {
			t.Error("expected action_archive method")
		}
	})

	t.Run("recognizes extensions", func(t *testing.T) {
		partner := docs[1]
		if !partner.IsExtension() {
			t.Fatal("res.partner document should be an extension")
		}
		if partner.EntityName() != "res.partner" {
			t.Errorf("expected entity name res.partner, got %q", partner.EntityName())
		}
		if len(partner.Fields) != 1 || partner.Fields[0].Name != "box_ids" {
			t.Errorf("expected one field box_ids, got %+v", partner.Fields)
		}
	})
}

func TestExtractModels_InheritList(t *testing.T) {
	source := `from odoo import fields, models

class RecordsBox(models.Model):
    _name = 'records.box'
    _inherit = ['mail.thread', 'mail.activity.mixin']

    name = fields.Char()
`
	result := parseSource(t, source)
	docs := NewModelExtractor(result).ExtractModels()

	if len(docs) != 1 {
		t.Fatalf("expected 1 model document, got %d", len(docs))
	}
	doc := docs[0]
	if doc.Name != "records.box" {
		t.Errorf("expected name records.box, got %q", doc.Name)
	}
	if len(doc.Inherits) != 2 {
		t.Fatalf("expected 2 inherit targets, got %v", doc.Inherits)
	}
	// _name wins for the entity binding even when _inherit is present
	if doc.EntityName() != "records.box" {
		t.Errorf("expected entity name records.box, got %q", doc.EntityName())
	}
}

func TestExtractModels_MissingName(t *testing.T) {
	source := `from odoo import fields, models

class Orphan(models.Model):
    name = fields.Char()
`
	result := parseSource(t, source)
	docs := NewModelExtractor(result).ExtractModels()

	if len(docs) != 1 {
		t.Fatalf("expected 1 model document, got %d", len(docs))
	}
	doc := docs[0]
	if doc.EntityName() != "" {
		t.Errorf("expected empty entity name, got %q", doc.EntityName())
	}
	if doc.Class != "Orphan" {
		t.Errorf("expected class Orphan, got %q", doc.Class)
	}
}

func TestExtractModels_IgnoresPlainClasses(t *testing.T) {
	source := `class Helper:
    def run(self):
        return 1
`
	result := parseSource(t, source)
	docs := NewModelExtractor(result).ExtractModels()

	if len(docs) != 0 {
		t.Fatalf("expected no model documents, got %d", len(docs))
	}
}
