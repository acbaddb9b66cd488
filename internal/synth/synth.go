package synth

import (
	"fmt"
	"strings"

	"mvx/internal/analysis"
	"mvx/internal/extract"
	"mvx/internal/registry"
)

// Basis distinguishes how a proposal's type was inferred.
type Basis string

const (
	// BasisNamingPattern marks types inferred from a naming-convention rule.
	BasisNamingPattern Basis = "naming_pattern"
	// BasisUsageContext marks types refined from registry context, e.g. a
	// relation target resolved against the known entity names.
	BasisUsageContext Basis = "usage_context"
	// BasisDefault marks the fallback when no rule matched.
	BasisDefault Basis = "default"
)

// SynthesizedField is a corrective declaration proposed for one gap.
//
// Proposals are never merged into the entity registry implicitly; an
// explicit apply step preserves the boundary between analysis and mutation.
// Wrong type inference silently applied is worse than a flagged gap.
type SynthesizedField struct {
	Entity string            `yaml:"entity" json:"entity"`
	Field  string            `yaml:"field" json:"field"`
	Kind   extract.FieldKind `yaml:"kind" json:"kind"`
	Type   extract.FieldType `yaml:"type" json:"type"`

	// Comodel is the proposed relation target for relational types.
	Comodel string `yaml:"comodel,omitempty" json:"comodel,omitempty"`

	// Compute is the proposed method name for computed fields.
	Compute string `yaml:"compute,omitempty" json:"compute,omitempty"`

	// Basis and Rule record how the type was inferred.
	Basis Basis  `yaml:"basis" json:"basis"`
	Rule  string `yaml:"rule,omitempty" json:"rule,omitempty"`

	// NeedsConfirmation marks proposals that require human review before
	// apply, such as selection fields with placeholder value lists.
	NeedsConfirmation bool `yaml:"needs_confirmation,omitempty" json:"needs_confirmation,omitempty"`

	// Declaration is the rendered field declaration.
	Declaration string `yaml:"declaration" json:"declaration"`

	// MethodSkeleton is the rendered compute method for computed fields.
	MethodSkeleton string `yaml:"method_skeleton,omitempty" json:"method_skeleton,omitempty"`
}

// Synthesizer proposes fields for gap records.
type Synthesizer struct {
	rules    []Rule
	entities *registry.EntityRegistry
}

// New creates a synthesizer with the given rule table. The entity registry
// is consulted read-only to resolve relation targets from context; it may be
// nil.
func New(rules []Rule, entities *registry.EntityRegistry) *Synthesizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Synthesizer{rules: rules, entities: entities}
}

// Propose synthesizes one field proposal per gap record, preserving the gap
// order (entity, then field).
func (s *Synthesizer) Propose(gaps []analysis.GapRecord) []SynthesizedField {
	proposals := make([]SynthesizedField, 0, len(gaps))
	for _, gap := range gaps {
		proposals = append(proposals, s.propose(gap))
	}
	return proposals
}

func (s *Synthesizer) propose(gap analysis.GapRecord) SynthesizedField {
	field := SynthesizedField{
		Entity: gap.Entity,
		Field:  gap.Field,
		Kind:   extract.KindScalar,
		Type:   extract.TypeText,
		Basis:  BasisDefault,
	}

	if rule, ok := Infer(gap.Field, s.rules); ok {
		field.Type = rule.Type
		field.Basis = BasisNamingPattern
		field.Rule = rule.Name
		if rule.Computed {
			field.Kind = extract.KindComputed
			field.Compute = "_compute_" + gap.Field
		}
	}

	switch field.Type {
	case extract.TypeMany2one, extract.TypeOne2many:
		if field.Kind != extract.KindComputed {
			field.Kind = extract.KindRelation
		}
		if comodel := s.resolveComodel(gap.Field); comodel != "" {
			field.Comodel = comodel
			field.Basis = BasisUsageContext
		}
	case extract.TypeSelection:
		// Selection value lists cannot be inferred from a name; the
		// placeholder requires human confirmation.
		field.NeedsConfirmation = true
	}

	field.Declaration = renderDeclaration(field)
	if field.Kind == extract.KindComputed {
		field.MethodSkeleton = renderComputeSkeleton(field)
	}
	return field
}

// resolveComodel guesses a relation target by matching the field's base name
// against the last segment of known entity names: partner_id resolves to
// res.partner when that entity is registered.
func (s *Synthesizer) resolveComodel(field string) string {
	if s.entities == nil {
		return ""
	}
	base := strings.TrimSuffix(strings.TrimSuffix(field, "_ids"), "_id")
	base = strings.TrimSuffix(base, "s")
	if base == "" {
		return ""
	}
	for _, name := range s.entities.Names() {
		segments := strings.Split(name, ".")
		last := segments[len(segments)-1]
		if last == base || strings.ReplaceAll(last, "_", "") == strings.ReplaceAll(base, "_", "") {
			return name
		}
	}
	return ""
}

// renderDeclaration renders the proposal as a framework field declaration.
func renderDeclaration(f SynthesizedField) string {
	label := fieldLabel(f.Field)
	var ctor string
	var args []string

	switch f.Type {
	case extract.TypeBoolean:
		ctor = "Boolean"
	case extract.TypeSelection:
		ctor = "Selection"
		args = append(args, "selection=[]")
	case extract.TypeNumeric:
		ctor = "Float"
	case extract.TypeDatetime:
		ctor = "Datetime"
	case extract.TypeMany2one:
		ctor = "Many2one"
		if f.Comodel != "" {
			args = append(args, fmt.Sprintf("comodel_name=%q", f.Comodel))
		}
	case extract.TypeOne2many:
		ctor = "One2many"
		if f.Comodel != "" {
			args = append(args, fmt.Sprintf("comodel_name=%q", f.Comodel))
		}
	default:
		ctor = "Char"
	}

	args = append(args, fmt.Sprintf("string=%q", label))
	if f.Compute != "" {
		args = append(args, fmt.Sprintf("compute=%q", f.Compute))
	}

	return fmt.Sprintf("%s = fields.%s(%s)", f.Field, ctor, strings.Join(args, ", "))
}

// renderComputeSkeleton renders a stub compute method for the proposal.
func renderComputeSkeleton(f SynthesizedField) string {
	var b strings.Builder
	fmt.Fprintf(&b, "def %s(self):\n", f.Compute)
	fmt.Fprintf(&b, "    for record in self:\n")
	fmt.Fprintf(&b, "        record.%s = %s\n", f.Field, zeroValue(f.Type))
	return b.String()
}

func zeroValue(t extract.FieldType) string {
	switch t {
	case extract.TypeBoolean:
		return "False"
	case extract.TypeNumeric:
		return "0.0"
	default:
		return "False"
	}
}

// fieldLabel turns a snake_case field name into a display label.
func fieldLabel(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		if w == "id" || w == "ids" {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.TrimSpace(strings.Join(words, " "))
}
