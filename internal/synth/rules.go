// Package synth proposes corrective field declarations for analysis gaps.
//
// Type inference is a priority-ordered list of naming-convention rules. The
// rule table is a policy input loaded from configuration, not a hard-coded
// constant; every proposal records which rule fired so synthesis output is
// auditable. Proposals are never applied implicitly.
package synth

import (
	"fmt"
	"strings"

	"mvx/internal/extract"
)

// MatchKind is how a rule's pattern is matched against a field name.
type MatchKind string

const (
	MatchSuffix   MatchKind = "suffix"
	MatchPrefix   MatchKind = "prefix"
	MatchContains MatchKind = "contains"
	MatchExact    MatchKind = "exact"
)

// Rule is one naming-convention inference rule. Rules are evaluated in
// order; the first match wins.
type Rule struct {
	// Name identifies the rule in audit output.
	Name string `yaml:"name" json:"name"`

	// Match selects the pattern semantics.
	Match MatchKind `yaml:"match" json:"match"`

	// Pattern is the literal to match per Match.
	Pattern string `yaml:"pattern" json:"pattern"`

	// Type is the inferred semantic type when the rule fires.
	Type extract.FieldType `yaml:"type" json:"type"`

	// Computed marks the inferred field as compute-backed; the proposal
	// then carries a method skeleton.
	Computed bool `yaml:"computed,omitempty" json:"computed,omitempty"`
}

// Applies reports whether the rule matches the field name.
func (r Rule) Applies(field string) bool {
	switch r.Match {
	case MatchSuffix:
		return strings.HasSuffix(field, r.Pattern)
	case MatchPrefix:
		return strings.HasPrefix(field, r.Pattern)
	case MatchContains:
		return strings.Contains(field, r.Pattern)
	case MatchExact:
		return field == r.Pattern
	default:
		return false
	}
}

// Validate checks that the rule is well-formed.
func (r Rule) Validate() error {
	switch r.Match {
	case MatchSuffix, MatchPrefix, MatchContains, MatchExact:
	default:
		return fmt.Errorf("rule %s: invalid match kind %q", r.Name, r.Match)
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule %s: empty pattern", r.Name)
	}
	if _, err := extract.ParseFieldType(string(r.Type)); err != nil {
		return fmt.Errorf("rule %s: %v", r.Name, err)
	}
	return nil
}

// DefaultRules returns the built-in rule table, in priority order. The
// `_ids` rule precedes `_id` because suffix matching is order-sensitive.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "one2many-suffix", Match: MatchSuffix, Pattern: "_ids", Type: extract.TypeOne2many},
		{Name: "many2one-suffix", Match: MatchSuffix, Pattern: "_id", Type: extract.TypeMany2one},
		{Name: "boolean-is-prefix", Match: MatchPrefix, Pattern: "is_", Type: extract.TypeBoolean},
		{Name: "boolean-has-prefix", Match: MatchPrefix, Pattern: "has_", Type: extract.TypeBoolean},
		{Name: "boolean-active", Match: MatchExact, Pattern: "active", Type: extract.TypeBoolean},
		{Name: "count-computed", Match: MatchSuffix, Pattern: "_count", Type: extract.TypeNumeric, Computed: true},
		{Name: "total-computed", Match: MatchPrefix, Pattern: "total_", Type: extract.TypeNumeric, Computed: true},
		{Name: "datetime-at-suffix", Match: MatchSuffix, Pattern: "_at", Type: extract.TypeDatetime},
		{Name: "datetime-date", Match: MatchContains, Pattern: "date", Type: extract.TypeDatetime},
		{Name: "datetime-deadline", Match: MatchContains, Pattern: "deadline", Type: extract.TypeDatetime},
		{Name: "selection-status", Match: MatchContains, Pattern: "status", Type: extract.TypeSelection},
		{Name: "selection-state", Match: MatchExact, Pattern: "state", Type: extract.TypeSelection},
		{Name: "selection-level", Match: MatchContains, Pattern: "level", Type: extract.TypeSelection},
		{Name: "numeric-amount", Match: MatchContains, Pattern: "amount", Type: extract.TypeNumeric},
		{Name: "numeric-rate", Match: MatchSuffix, Pattern: "_rate", Type: extract.TypeNumeric},
	}
}

// Infer applies the rule list in order and returns the first matching rule.
// Returns false when no rule matches; the caller falls back to text.
func Infer(field string, rules []Rule) (Rule, bool) {
	for _, rule := range rules {
		if rule.Applies(field) {
			return rule, true
		}
	}
	return Rule{}, false
}
