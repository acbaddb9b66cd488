package analysis

import (
	"sort"

	"mvx/internal/extract"
	"mvx/internal/registry"
)

// Tiebreak selects the canonical declaration among duplicates with equally
// complete type information.
type Tiebreak string

const (
	// TiebreakFirst keeps the first-declared duplicate (default, order-stable).
	TiebreakFirst Tiebreak = "first"
	// TiebreakLast keeps the last-declared duplicate.
	TiebreakLast Tiebreak = "last"
)

// completeness ranks a declaration by how much type information it carries.
// computed > relation > typed scalar > untyped.
func completeness(f extract.FieldDeclaration) int {
	switch {
	case f.Kind == extract.KindComputed:
		return 3
	case f.Kind == extract.KindRelation:
		return 2
	case f.Type != extract.TypeUnknown:
		return 1
	default:
		return 0
	}
}

// ResolveDuplicates reduces an entity's declarations to one canonical
// declaration per field name.
//
// The canonical declaration is the most type-complete one; ties go to the
// first-declared (or last, per tiebreak) so the result is deterministic and
// order-stable. The input entity is not mutated; the returned slice preserves
// first-occurrence order, which keeps the operation idempotent and guarantees
// at least one declaration survives per name.
func ResolveDuplicates(ent *registry.Entity, tiebreak Tiebreak) ([]extract.FieldDeclaration, []DuplicateFieldRecord) {
	resolved := make([]extract.FieldDeclaration, 0, len(ent.Fields))
	index := make(map[string]int) // field name -> position in resolved
	discarded := make(map[string][]extract.FieldDeclaration)

	for _, f := range ent.Fields {
		at, seen := index[f.Name]
		if !seen {
			index[f.Name] = len(resolved)
			resolved = append(resolved, f)
			continue
		}

		current := resolved[at]
		keepNew := completeness(f) > completeness(current) ||
			(completeness(f) == completeness(current) && tiebreak == TiebreakLast)
		if keepNew {
			discarded[f.Name] = append(discarded[f.Name], current)
			resolved[at] = f
		} else {
			discarded[f.Name] = append(discarded[f.Name], f)
		}
	}

	var records []DuplicateFieldRecord
	for name, dropped := range discarded {
		records = append(records, DuplicateFieldRecord{
			Entity:    ent.Name,
			Field:     name,
			Canonical: resolved[index[name]],
			Discarded: dropped,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Field < records[j].Field
	})

	return resolved, records
}

// ResolveAll resolves duplicates for every entity in the registry.
// Records are ordered by entity name, then field name.
func ResolveAll(reg *registry.EntityRegistry, tiebreak Tiebreak) (map[string][]extract.FieldDeclaration, []DuplicateFieldRecord) {
	resolved := make(map[string][]extract.FieldDeclaration, len(reg.Entities))
	var records []DuplicateFieldRecord

	for _, name := range reg.Names() {
		fields, recs := ResolveDuplicates(reg.Entities[name], tiebreak)
		resolved[name] = fields
		records = append(records, recs...)
	}

	return resolved, records
}
