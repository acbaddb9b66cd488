// Package views parses declarative view documents into view definitions.
//
// View sources are XML documents. Each view record is bound to one entity
// name and carries an ordered list of field references inside its arch
// markup. Read/write intent is not distinguished; presence is what matters.
package views

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// FieldReference is one field referenced by a view, in document order.
type FieldReference struct {
	// Name is the referenced field name.
	Name string `yaml:"name" json:"name"`
}

// ViewDefinition is a declarative UI artifact bound to exactly one entity.
type ViewDefinition struct {
	// ID is the view's external identifier (record id attribute).
	ID string `yaml:"id" json:"id"`

	// Entity is the bound model name. Views bound to an entity absent from
	// the entity registry are reported as unbound, not dropped.
	Entity string `yaml:"entity" json:"entity"`

	// File is the source document path.
	File string `yaml:"file" json:"file"`

	// Fields are the field references in document order.
	Fields []FieldReference `yaml:"fields" json:"fields"`
}

// FieldNames returns the referenced field names in document order.
func (v *ViewDefinition) FieldNames() []string {
	names := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		names = append(names, f.Name)
	}
	return names
}

// viewRecordModel is the framework model that view records are stored under.
const viewRecordModel = "ir.ui.view"

// ParseFile parses a view-source file into its view definitions.
func ParseFile(path string) ([]ViewDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open view source %s: %w", path, err)
	}
	defer f.Close()

	defs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse view source %s: %w", path, err)
	}
	for i := range defs {
		defs[i].File = path
	}
	return defs, nil
}

// Parse reads view definitions from XML markup.
//
// A view is a <record model="ir.ui.view"> element; its <field name="model">
// child binds the view to an entity, and every <field name="..."> element
// inside the <field name="arch"> subtree is a field reference.
func Parse(r io.Reader) ([]ViewDefinition, error) {
	dec := xml.NewDecoder(r)

	var (
		defs      []ViewDefinition
		current   *ViewDefinition
		depth     int
		recordAt  int
		archAt    int
		inArch    bool
		wantModel bool
		modelText strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case current == nil:
				if t.Name.Local == "record" && attr(t, "model") == viewRecordModel {
					current = &ViewDefinition{ID: attr(t, "id")}
					recordAt = depth
				}
			case t.Name.Local == "field":
				name := attr(t, "name")
				switch {
				case inArch:
					if name != "" {
						current.Fields = append(current.Fields, FieldReference{Name: name})
					}
				case name == "model" && depth == recordAt+1:
					wantModel = true
					modelText.Reset()
				case name == "arch" && depth == recordAt+1:
					inArch = true
					archAt = depth
				}
			}

		case xml.CharData:
			if wantModel {
				modelText.Write(t)
			}

		case xml.EndElement:
			if current != nil {
				if wantModel && depth == recordAt+1 {
					current.Entity = strings.TrimSpace(modelText.String())
					wantModel = false
				}
				if inArch && depth == archAt {
					inArch = false
				}
				if depth == recordAt {
					defs = append(defs, *current)
					current = nil
				}
			}
			depth--
		}
	}

	return defs, nil
}

// attr returns the value of the named attribute, or "".
func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
