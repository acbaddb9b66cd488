// Package analysis implements the consistency checks between the entity and
// view registries: structural validation, duplicate resolution and gap
// analysis.
//
// All recoverable findings are captured as records and forwarded to the
// report; no component throws past its own boundary for recoverable classes.
package analysis

import (
	"fmt"
	"strings"

	"mvx/internal/extract"
)

// Severity is the process-wide finding severity.
type Severity int

const (
	// SeverityInfo findings are informational only.
	SeverityInfo Severity = iota
	// SeverityWarning findings degrade the deployment but do not block it.
	SeverityWarning
	// SeverityCritical findings invalidate the whole deployment. A single
	// critical finding forces the run severity to critical.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// MarshalYAML serializes the severity as its string form.
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// MarshalJSON serializes the severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ParseSeverity parses a severity string.
// Returns an error for invalid severity values.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info", "informational":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityInfo, fmt.Errorf("invalid severity: %q (expected info, warning, or critical)", s)
	}
}

// Max returns the higher of two severities.
func Max(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// StructuralErrorKind distinguishes the structural defect classes.
type StructuralErrorKind string

const (
	// StructuralMissingName marks a model document declaring neither a
	// name nor an extension target.
	StructuralMissingName StructuralErrorKind = "missing_name"

	// StructuralReservedRedefinition marks a redefinition of a
	// framework-reserved entity. Redefining destroys the framework's prior
	// definition; such entities must be declared as extensions.
	StructuralReservedRedefinition StructuralErrorKind = "reserved_redefinition"
)

// StructuralError is a malformed or framework-violating declaration.
// Always critical.
type StructuralError struct {
	Kind    StructuralErrorKind `yaml:"kind" json:"kind"`
	Entity  string              `yaml:"entity,omitempty" json:"entity,omitempty"`
	File    string              `yaml:"file,omitempty" json:"file,omitempty"`
	Line    uint32              `yaml:"line,omitempty" json:"line,omitempty"`
	Message string              `yaml:"message" json:"message"`
}

// DuplicateFieldRecord reports a resolved duplicate-declaration conflict.
type DuplicateFieldRecord struct {
	Entity    string                     `yaml:"entity" json:"entity"`
	Field     string                     `yaml:"field" json:"field"`
	Canonical extract.FieldDeclaration   `yaml:"canonical" json:"canonical"`
	Discarded []extract.FieldDeclaration `yaml:"discarded" json:"discarded"`
}

// GapRecord reports a field referenced by views but absent from its entity's
// declarations. One record per (entity, field) pair regardless of how many
// views reference it.
type GapRecord struct {
	Entity string `yaml:"entity" json:"entity"`
	Field  string `yaml:"field" json:"field"`
	// Views lists the referencing view IDs in registry order.
	Views    []string `yaml:"views" json:"views"`
	Severity Severity `yaml:"severity" json:"severity"`
}

// UnimplementedComputeRecord reports a computed field whose compute reference
// does not resolve to a method on the entity. The field exists but is
// non-functional, a distinct defect class from a missing field.
type UnimplementedComputeRecord struct {
	Entity  string `yaml:"entity" json:"entity"`
	Field   string `yaml:"field" json:"field"`
	Compute string `yaml:"compute" json:"compute"`
	File    string `yaml:"file,omitempty" json:"file,omitempty"`
	Line    uint32 `yaml:"line,omitempty" json:"line,omitempty"`
}

// UnboundViewWarning reports a view bound to an entity absent from the entity
// registry. Build order between the registries is not guaranteed, so this is
// a warning, never fatal.
type UnboundViewWarning struct {
	View   string `yaml:"view" json:"view"`
	Entity string `yaml:"entity" json:"entity"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}
