package analysis

import (
	"fmt"
	"sort"

	"mvx/internal/registry"
)

// CheckStructure validates the entity registry against the framework rules.
//
// Two defect classes: model documents declaring neither a name nor an
// extension target, and redefinitions of framework-reserved entities. Both
// are StructuralErrors and force the run severity to critical.
func CheckStructure(entities *registry.EntityRegistry, reserved map[string]bool) []StructuralError {
	var errs []StructuralError

	for _, doc := range entities.Malformed {
		errs = append(errs, StructuralError{
			Kind:    StructuralMissingName,
			File:    doc.File,
			Line:    doc.Line,
			Message: fmt.Sprintf("model class %s declares neither _name nor _inherit", doc.Class),
		})
	}

	for _, name := range entities.Names() {
		ent := entities.Entities[name]
		if ent.Redefined && reserved[name] {
			file := ""
			if len(ent.Files) > 0 {
				file = ent.Files[0]
			}
			errs = append(errs, StructuralError{
				Kind:    StructuralReservedRedefinition,
				Entity:  name,
				File:    file,
				Message: fmt.Sprintf("entity %s redefines a framework-reserved model; declare it as an extension", name),
			})
		}
	}

	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Entity != errs[j].Entity {
			return errs[i].Entity < errs[j].Entity
		}
		return errs[i].File < errs[j].File
	})
	return errs
}
