package extract

import (
	"fmt"
	"strings"
)

// FieldKind classifies how a field's value is produced.
type FieldKind string

const (
	// KindScalar is a stored scalar field (text, boolean, numeric, ...).
	KindScalar FieldKind = "scalar"
	// KindRelation is a stored relational field (many2one, one2many).
	KindRelation FieldKind = "relation"
	// KindComputed is a field whose value is derived by a compute method.
	KindComputed FieldKind = "computed"
)

// FieldType is the semantic type of a field declaration.
type FieldType string

const (
	TypeText      FieldType = "text"
	TypeBoolean   FieldType = "boolean"
	TypeSelection FieldType = "selection"
	TypeNumeric   FieldType = "numeric"
	TypeDatetime  FieldType = "datetime"
	TypeMany2one  FieldType = "many2one"
	TypeOne2many  FieldType = "one2many"
	// TypeUnknown is used when the declaration carries no recognizable
	// field constructor. Unknown-typed declarations rank lowest during
	// duplicate resolution.
	TypeUnknown FieldType = "unknown"
)

// ParseFieldType parses a field type string.
// Returns an error for invalid type values.
func ParseFieldType(s string) (FieldType, error) {
	switch FieldType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeText, TypeBoolean, TypeSelection, TypeNumeric, TypeDatetime, TypeMany2one, TypeOne2many, TypeUnknown:
		return FieldType(strings.ToLower(strings.TrimSpace(s))), nil
	default:
		return "", fmt.Errorf("invalid field type: %q", s)
	}
}

// FieldDeclaration is a single field declared by a model document.
type FieldDeclaration struct {
	// Name is the field name, unique within its entity after duplicate
	// resolution.
	Name string `yaml:"name" json:"name"`

	// Kind classifies the declaration (scalar, relation, computed).
	Kind FieldKind `yaml:"kind" json:"kind"`

	// Type is the semantic field type inferred from the constructor.
	Type FieldType `yaml:"type" json:"type"`

	// Compute names the implementing method for computed fields.
	// Empty for stored fields.
	Compute string `yaml:"compute,omitempty" json:"compute,omitempty"`

	// Comodel is the target entity name for relational fields.
	Comodel string `yaml:"comodel,omitempty" json:"comodel,omitempty"`

	// File and Line record where the declaration appears.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
	Line uint32 `yaml:"line,omitempty" json:"line,omitempty"`
}

// ModelDocument is the extraction result for one model class.
//
// A document declares a model by `_name` (a redefinition when the name is
// new, invalid when it collides with a reserved framework model), extends an
// existing model by `_inherit`, or both (in-place extension under the same
// name). A class with neither is structurally malformed.
type ModelDocument struct {
	// Name is the declared model name (`_name`), empty for pure extensions.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Inherits lists extension targets (`_inherit`), in declaration order.
	Inherits []string `yaml:"inherits,omitempty" json:"inherits,omitempty"`

	// Class is the declaring Python class name.
	Class string `yaml:"class" json:"class"`

	// File is the source document path.
	File string `yaml:"file" json:"file"`

	// Line is the class definition's line number.
	Line uint32 `yaml:"line" json:"line"`

	// Fields are the field declarations in source order.
	Fields []FieldDeclaration `yaml:"fields" json:"fields"`

	// Methods are the class method names, used to resolve compute
	// references.
	Methods []string `yaml:"methods,omitempty" json:"methods,omitempty"`
}

// EntityName returns the model name this document contributes to:
// the declared `_name` if present, otherwise the first `_inherit` target.
func (d *ModelDocument) EntityName() string {
	if d.Name != "" {
		return d.Name
	}
	if len(d.Inherits) > 0 {
		return d.Inherits[0]
	}
	return ""
}

// IsExtension reports whether the document extends an existing model rather
// than (re)defining one. Extending preserves the prior definition and adds
// fields; redefining replaces it outright.
func (d *ModelDocument) IsExtension() bool {
	return len(d.Inherits) > 0
}

// HasMethod reports whether the document's class declares the named method.
func (d *ModelDocument) HasMethod(name string) bool {
	for _, m := range d.Methods {
		if m == name {
			return true
		}
	}
	return false
}
