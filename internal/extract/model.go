// Package extract provides model-document extraction from parsed AST trees.
package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"mvx/internal/parser"
)

// ModelExtractor extracts model documents from a parsed model source.
type ModelExtractor struct {
	result *parser.ParseResult
}

// NewModelExtractor creates an extractor for the given parse result.
func NewModelExtractor(result *parser.ParseResult) *ModelExtractor {
	return &ModelExtractor{result: result}
}

// modelBases are the framework base classes that mark a class as a model
// declaration.
var modelBases = []string{
	"models.Model",
	"models.TransientModel",
	"models.AbstractModel",
}

// fieldConstructors maps framework field constructors to their semantic type.
var fieldConstructors = map[string]FieldType{
	"Char":      TypeText,
	"Text":      TypeText,
	"Html":      TypeText,
	"Boolean":   TypeBoolean,
	"Selection": TypeSelection,
	"Integer":   TypeNumeric,
	"Float":     TypeNumeric,
	"Monetary":  TypeNumeric,
	"Date":      TypeDatetime,
	"Datetime":  TypeDatetime,
	"Many2one":  TypeMany2one,
	"One2many":  TypeOne2many,
	"Many2many": TypeOne2many,
	"Reference": TypeMany2one,
}

// ExtractModels returns one ModelDocument per model class in the source.
//
// A class counts as a model class when it inherits a framework base class or
// declares at least one field via a `fields.*` constructor. Classes with
// neither `_name` nor `_inherit` are still returned; deciding whether that is
// a structural defect belongs to the analysis stage.
func (e *ModelExtractor) ExtractModels() []ModelDocument {
	var docs []ModelDocument

	for _, classNode := range e.result.FindNodesByType("class_definition") {
		doc := e.extractClass(classNode)
		if doc != nil {
			docs = append(docs, *doc)
		}
	}

	return docs
}

// extractClass extracts a single class definition, or nil if the class is
// not a model class.
func (e *ModelExtractor) extractClass(node *sitter.Node) *ModelDocument {
	nameNode := node.ChildByFieldName("name")
	bodyNode := node.ChildByFieldName("body")
	if nameNode == nil || bodyNode == nil {
		return nil
	}

	doc := &ModelDocument{
		Class: e.result.NodeText(nameNode),
		File:  e.result.FilePath,
		Line:  node.StartPoint().Row + 1,
	}

	isModel := e.hasModelBase(node)

	for i := 0; i < int(bodyNode.NamedChildCount()); i++ {
		child := bodyNode.NamedChild(i)
		switch child.Type() {
		case "expression_statement":
			if assign := firstNamedChildOfType(child, "assignment"); assign != nil {
				if e.extractAssignment(assign, doc) {
					isModel = true
				}
			}
		case "function_definition":
			if fn := child.ChildByFieldName("name"); fn != nil {
				doc.Methods = append(doc.Methods, e.result.NodeText(fn))
			}
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def != nil && def.Type() == "function_definition" {
				if fn := def.ChildByFieldName("name"); fn != nil {
					doc.Methods = append(doc.Methods, e.result.NodeText(fn))
				}
			}
		}
	}

	if !isModel {
		return nil
	}
	return doc
}

// extractAssignment processes one class-body assignment. It returns true if
// the assignment marks the class as a model declaration (a `_name`/`_inherit`
// attribute or a field constructor).
func (e *ModelExtractor) extractAssignment(assign *sitter.Node, doc *ModelDocument) bool {
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return false
	}

	switch e.result.NodeText(left) {
	case "_name":
		doc.Name = e.stringValue(right)
		return doc.Name != ""
	case "_inherit":
		doc.Inherits = append(doc.Inherits, e.stringValues(right)...)
		return len(doc.Inherits) > 0
	}

	if right.Type() != "call" {
		return false
	}

	field := e.extractField(e.result.NodeText(left), right)
	if field == nil {
		return false
	}
	doc.Fields = append(doc.Fields, *field)
	return true
}

// extractField interprets a `fields.<Constructor>(...)` call as a field
// declaration. Returns nil for calls that are not field constructors.
func (e *ModelExtractor) extractField(name string, call *sitter.Node) *FieldDeclaration {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return nil
	}

	object := fn.ChildByFieldName("object")
	attr := fn.ChildByFieldName("attribute")
	if object == nil || attr == nil || e.result.NodeText(object) != "fields" {
		return nil
	}

	constructor := e.result.NodeText(attr)
	fieldType, known := fieldConstructors[constructor]
	if !known {
		fieldType = TypeUnknown
	}

	field := &FieldDeclaration{
		Name: name,
		Type: fieldType,
		File: e.result.FilePath,
		Line: call.StartPoint().Row + 1,
	}

	switch fieldType {
	case TypeMany2one, TypeOne2many:
		field.Kind = KindRelation
	default:
		field.Kind = KindScalar
	}

	if args := call.ChildByFieldName("arguments"); args != nil {
		e.extractFieldArgs(args, field)
	}

	if field.Compute != "" {
		field.Kind = KindComputed
	}

	return field
}

// extractFieldArgs pulls the compute method and relation comodel out of a
// field constructor's argument list.
func (e *ModelExtractor) extractFieldArgs(args *sitter.Node, field *FieldDeclaration) {
	positional := 0
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "keyword_argument":
			key := arg.ChildByFieldName("name")
			value := arg.ChildByFieldName("value")
			if key == nil || value == nil {
				continue
			}
			switch e.result.NodeText(key) {
			case "compute":
				field.Compute = e.stringValue(value)
			case "comodel_name":
				field.Comodel = e.stringValue(value)
			}
		case "string":
			// First positional string of a relational constructor is
			// the comodel name.
			if positional == 0 && field.Kind == KindRelation && field.Comodel == "" {
				field.Comodel = e.stringText(arg)
			}
			positional++
		default:
			positional++
		}
	}
}

// hasModelBase reports whether the class inherits a framework model base.
func (e *ModelExtractor) hasModelBase(classNode *sitter.Node) bool {
	supers := classNode.ChildByFieldName("superclasses")
	if supers == nil {
		return false
	}
	text := e.result.NodeText(supers)
	for _, base := range modelBases {
		if strings.Contains(text, base) {
			return true
		}
	}
	return false
}

// stringValue returns the unquoted text of a string node, or "" for
// non-string values (lambdas, references, f-strings with interpolation).
func (e *ModelExtractor) stringValue(node *sitter.Node) string {
	if node == nil || node.Type() != "string" {
		return ""
	}
	return e.stringText(node)
}

// stringValues returns the unquoted elements of a string or list-of-strings
// node. `_inherit` accepts both forms.
func (e *ModelExtractor) stringValues(node *sitter.Node) []string {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "string":
		if s := e.stringText(node); s != "" {
			return []string{s}
		}
	case "list":
		var out []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "string" {
				if s := e.stringText(child); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}

// stringText strips quotes and prefixes from a Python string literal.
func (e *ModelExtractor) stringText(node *sitter.Node) string {
	text := e.result.NodeText(node)
	text = strings.TrimLeft(text, "rbufRBUF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	return text
}

// firstNamedChildOfType returns the first named child with the given type.
func firstNamedChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}
