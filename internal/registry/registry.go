// Package registry builds cross-referenced inventories of entities and views.
//
// The entity registry maps model names to merged entity declarations; the
// view registry maps model names to the views bound to them. The two
// registries are built independently (possibly in parallel) and are only
// cross-referenced afterwards, by the analysis stage.
package registry

import (
	"sort"

	"mvx/internal/extract"
	"mvx/internal/views"
)

// Entity is a named data type in the model layer, merged from every document
// contributing to it.
type Entity struct {
	// Name is the unique dotted-namespace model name.
	Name string `yaml:"name" json:"name"`

	// Redefined reports that at least one document declared this entity via
	// `_name` without an extension target, replacing any prior definition.
	// Redefining a framework-reserved entity is the most severe defect
	// class the engine surfaces.
	Redefined bool `yaml:"redefined" json:"redefined"`

	// Parents lists extension targets other than the entity's own name.
	Parents []string `yaml:"parents,omitempty" json:"parents,omitempty"`

	// Fields are the declarations in merge order (file path, then source
	// order). Duplicate names are preserved here; the duplicate resolver
	// reduces them to one canonical declaration per name.
	Fields []extract.FieldDeclaration `yaml:"fields" json:"fields"`

	// Methods is the union of method names across contributing documents.
	Methods map[string]bool `yaml:"-" json:"-"`

	// Files lists the contributing source documents.
	Files []string `yaml:"files,omitempty" json:"files,omitempty"`
}

// HasMethod reports whether any contributing document declares the method.
func (e *Entity) HasMethod(name string) bool {
	return e.Methods[name]
}

// FieldNames returns the declared field names in merge order, duplicates
// included.
func (e *Entity) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Name)
	}
	return names
}

// DocumentError records a source document whose contribution was aborted.
// One bad document must not hide findings in the others.
type DocumentError struct {
	File    string `yaml:"file" json:"file"`
	Message string `yaml:"message" json:"message"`
}

// EntityRegistry is the structured inventory of entity declarations.
type EntityRegistry struct {
	// Entities maps model name to the merged entity.
	Entities map[string]*Entity

	// Malformed holds model documents declaring neither a name nor an
	// extension target. The analysis stage turns these into structural
	// errors.
	Malformed []extract.ModelDocument

	// Errors lists documents that could not be parsed at all.
	Errors []DocumentError
}

// NewEntityRegistry returns an empty entity registry.
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{Entities: make(map[string]*Entity)}
}

// Names returns the registered entity names in lexicographic order.
func (r *EntityRegistry) Names() []string {
	names := make([]string, 0, len(r.Entities))
	for name := range r.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the entity with the given name, or nil.
func (r *EntityRegistry) Get(name string) *Entity {
	return r.Entities[name]
}

// Add merges one model document into the registry.
// Documents with neither name nor extension target go to Malformed.
func (r *EntityRegistry) Add(doc extract.ModelDocument) {
	name := doc.EntityName()
	if name == "" {
		r.Malformed = append(r.Malformed, doc)
		return
	}

	ent := r.Entities[name]
	if ent == nil {
		ent = &Entity{Name: name, Methods: make(map[string]bool)}
		r.Entities[name] = ent
	}

	// `_name` alongside `_inherit` of the same name is an in-place
	// extension; `_name` with only foreign targets still (re)defines.
	if doc.Name != "" && !containsString(doc.Inherits, doc.Name) {
		ent.Redefined = true
	}
	for _, parent := range doc.Inherits {
		if parent != name && !containsString(ent.Parents, parent) {
			ent.Parents = append(ent.Parents, parent)
		}
	}
	ent.Fields = append(ent.Fields, doc.Fields...)
	for _, m := range doc.Methods {
		ent.Methods[m] = true
	}
	if doc.File != "" && !containsString(ent.Files, doc.File) {
		ent.Files = append(ent.Files, doc.File)
	}
}

// Merge folds another registry into this one. Call with partials in a
// deterministic order; entity field order follows merge order.
func (r *EntityRegistry) Merge(other *EntityRegistry) {
	for _, name := range other.Names() {
		ent := other.Entities[name]
		dst := r.Entities[name]
		if dst == nil {
			dst = &Entity{Name: name, Methods: make(map[string]bool)}
			r.Entities[name] = dst
		}
		dst.Redefined = dst.Redefined || ent.Redefined
		for _, parent := range ent.Parents {
			if !containsString(dst.Parents, parent) {
				dst.Parents = append(dst.Parents, parent)
			}
		}
		dst.Fields = append(dst.Fields, ent.Fields...)
		for m := range ent.Methods {
			dst.Methods[m] = true
		}
		for _, f := range ent.Files {
			if !containsString(dst.Files, f) {
				dst.Files = append(dst.Files, f)
			}
		}
	}
	r.Malformed = append(r.Malformed, other.Malformed...)
	r.Errors = append(r.Errors, other.Errors...)
}

// ViewRegistry is the structured inventory of view definitions, keyed by the
// entity they are bound to.
type ViewRegistry struct {
	// Views maps entity name to its bound views.
	Views map[string][]views.ViewDefinition

	// Errors lists documents that could not be parsed at all.
	Errors []DocumentError
}

// NewViewRegistry returns an empty view registry.
func NewViewRegistry() *ViewRegistry {
	return &ViewRegistry{Views: make(map[string][]views.ViewDefinition)}
}

// EntityNames returns the bound entity names in lexicographic order.
func (r *ViewRegistry) EntityNames() []string {
	names := make([]string, 0, len(r.Views))
	for name := range r.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add registers one view definition under its bound entity.
// Views with no model binding are dropped here; they reference nothing.
func (r *ViewRegistry) Add(def views.ViewDefinition) {
	if def.Entity == "" {
		return
	}
	r.Views[def.Entity] = append(r.Views[def.Entity], def)
}

// Merge folds another registry into this one.
func (r *ViewRegistry) Merge(other *ViewRegistry) {
	for _, name := range other.EntityNames() {
		r.Views[name] = append(r.Views[name], other.Views[name]...)
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// ViewCount returns the total number of registered views.
func (r *ViewRegistry) ViewCount() int {
	n := 0
	for _, defs := range r.Views {
		n += len(defs)
	}
	return n
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
