package analysis

import (
	"path/filepath"
	"sort"

	"mvx/internal/extract"
	"mvx/internal/registry"
)

// AnalyzeGaps computes the set difference between fields referenced by views
// and fields declared by entities.
//
// Runs after duplicate resolution; resolved holds the canonical declarations
// per entity. Unsatisfied references are grouped into one GapRecord per
// (entity, field) pair, aggregating all referencing views. Views bound to an
// entity absent from the registry become UnboundViewWarnings and contribute
// no gaps.
//
// Output order is deterministic: entity name, then field name,
// lexicographic, so successive reports diff cleanly.
func AnalyzeGaps(entities *registry.EntityRegistry, viewReg *registry.ViewRegistry, resolved map[string][]extract.FieldDeclaration, criticalViews []string) ([]GapRecord, []UnboundViewWarning) {
	var gaps []GapRecord
	var unbound []UnboundViewWarning

	for _, entityName := range viewReg.EntityNames() {
		defs := viewReg.Views[entityName]

		ent := entities.Get(entityName)
		if ent == nil {
			for _, def := range defs {
				unbound = append(unbound, UnboundViewWarning{
					View:   def.ID,
					Entity: entityName,
					File:   def.File,
				})
			}
			continue
		}

		declared := make(map[string]bool)
		for _, f := range resolved[entityName] {
			declared[f.Name] = true
		}

		// Aggregate missing references: same field in five views is one
		// record, not five.
		missing := make(map[string][]string) // field -> referencing view IDs
		for _, def := range defs {
			seenInView := make(map[string]bool)
			for _, ref := range def.Fields {
				if declared[ref.Name] || seenInView[ref.Name] {
					continue
				}
				seenInView[ref.Name] = true
				missing[ref.Name] = append(missing[ref.Name], def.ID)
			}
		}

		fields := make([]string, 0, len(missing))
		for field := range missing {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			severity := SeverityWarning
			if anyViewMatches(missing[field], criticalViews) {
				severity = SeverityCritical
			}
			gaps = append(gaps, GapRecord{
				Entity:   entityName,
				Field:    field,
				Views:    missing[field],
				Severity: severity,
			})
		}
	}

	return gaps, unbound
}

// AnalyzeComputes reports computed declarations whose compute reference does
// not resolve to a method on the owning entity. Output order is entity name,
// then field name.
func AnalyzeComputes(entities *registry.EntityRegistry, resolved map[string][]extract.FieldDeclaration) []UnimplementedComputeRecord {
	var records []UnimplementedComputeRecord

	for _, name := range entities.Names() {
		ent := entities.Entities[name]
		fields := append([]extract.FieldDeclaration(nil), resolved[name]...)
		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Name < fields[j].Name
		})
		for _, f := range fields {
			if f.Kind != extract.KindComputed {
				continue
			}
			if f.Compute == "" || !ent.HasMethod(f.Compute) {
				records = append(records, UnimplementedComputeRecord{
					Entity:  name,
					Field:   f.Name,
					Compute: f.Compute,
					File:    f.File,
					Line:    f.Line,
				})
			}
		}
	}

	return records
}

// anyViewMatches reports whether any view ID matches one of the critical-view
// glob patterns. Gaps referenced by a critical business surface escalate from
// warning to critical.
func anyViewMatches(viewIDs, patterns []string) bool {
	for _, pattern := range patterns {
		for _, id := range viewIDs {
			if matched, _ := filepath.Match(pattern, id); matched {
				return true
			}
		}
	}
	return false
}
