package wizard

// reconcile.go matches source columns against the destination table and
// classifies every resulting slot.
//
// Matching is exact and case-insensitive. There is no fuzzy matching on
// this path; suggest.go offers a manual assist, but it is never applied
// automatically. A source column with no exact match comes back unmapped
// and excluded, so the user has to resolve it by hand.

import "strings"

// MappingsFromSource builds the initial, unresolved mapping set for a
// freshly extracted set of source columns. Order keys start at zero.
func MappingsFromSource(cols []SourceColumn) []ColumnMapping {
	mappings := make([]ColumnMapping, 0, len(cols))
	for i, col := range cols {
		mappings = append(mappings, NewSourcedMapping(col, i))
	}
	return mappings
}

// MappingsForNewTable builds the mapping set used when the user creates a
// brand-new destination table: every source column maps to a column of
// the same (lowercased) name and keeps its extracted type.
func MappingsForNewTable(cols []SourceColumn) []ColumnMapping {
	mappings := make([]ColumnMapping, 0, len(cols))
	for i, col := range cols {
		m := NewSourcedMapping(col, i)
		m.DestinationColumn = strings.ToLower(col.Name)
		m.DestinationType = col.Type
		mappings = append(mappings, m)
	}
	return mappings
}

// Reconcile matches the given mapping set against the destination table
// columns and returns a fresh, fully classified mapping set.
//
// Sourced entries are re-matched by exact, case-insensitive name: a match
// binds the destination's canonical-cased name and copies its type and
// nullability; no match clears the binding and excludes the entry.
// Carried table-only entries pass through untouched. Destination columns
// consumed by neither become new table-only entries, excluded or not per
// the policy's strategy defaults — except system-managed columns under
// truncate_insert, which are omitted entirely because the DDL generator
// recreates them on every run.
//
// Output order: sourced entries in input order, carried table-only
// entries, then synthesized table-only entries. Order keys of new entries
// continue monotonically after the highest existing key.
//
// Reconcile never fails: an empty destination column set simply leaves
// every sourced entry unmapped.
func Reconcile(mappings []ColumnMapping, dest []TableColumn, strategy LoadStrategy, policy Policy) []ColumnMapping {
	destByName := make(map[string]TableColumn, len(dest))
	for _, d := range dest {
		// Destination columns differing only by case collapse to one;
		// the last one wins, matching the case-insensitive contract.
		destByName[strings.ToLower(d.Name)] = d
	}

	nextOrder := 0
	for _, m := range mappings {
		if m.Order >= nextOrder {
			nextOrder = m.Order + 1
		}
	}

	consumed := make(map[string]bool, len(dest))
	var sourced, carried []ColumnMapping

	for _, m := range mappings {
		if !m.Sourced() {
			carried = append(carried, m)
			if m.DestinationColumn != "" {
				consumed[strings.ToLower(m.DestinationColumn)] = true
			}
			continue
		}

		key := strings.ToLower(m.SourceColumn)
		if d, ok := destByName[key]; ok {
			m.DestinationColumn = d.Name
			m.DestinationType = d.Type
			m.Nullable = d.Nullable
			m.Default = d.Default
			m.Exclude = false
			consumed[key] = true
		} else {
			m.DestinationColumn = ""
			m.DestinationType = ""
			m.Exclude = true
		}
		sourced = append(sourced, m)
	}

	var synthesized []ColumnMapping
	for _, d := range dest {
		if consumed[strings.ToLower(d.Name)] {
			continue
		}
		if strategy == StrategyTruncateInsert && policy.IsSystemColumn(d.Name) {
			continue
		}
		exclude := policy.DefaultExclude(d, strategy)
		synthesized = append(synthesized, NewTableOnlyMapping(d, nextOrder, exclude))
		nextOrder++
		consumed[strings.ToLower(d.Name)] = true
	}

	out := make([]ColumnMapping, 0, len(sourced)+len(carried)+len(synthesized))
	out = append(out, sourced...)
	out = append(out, carried...)
	out = append(out, synthesized...)
	return out
}
