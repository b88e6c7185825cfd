// Package wizard implements the configuration core of the data-load wizard:
// reconciling source columns against a destination table, enforcing
// load-strategy rules, validating each configuration step, and generating
// the CREATE TABLE statement for new destination tables.
//
// Everything in this package is a pure computation over value types. The
// HTTP layer supplies inputs (extracted source metadata, fetched table
// schemas, user choices) and renders the outputs (mappings, validation
// results, DDL previews). Nothing here touches the network or a database.
package wizard

// LoadStrategy is the write semantics of a job: append-only insert,
// merge-by-key upsert, or full-replace truncate+insert.
type LoadStrategy string

const (
	StrategyInsert         LoadStrategy = "insert"
	StrategyUpsert         LoadStrategy = "upsert"
	StrategyTruncateInsert LoadStrategy = "truncate_insert"
)

// Valid reports whether s is a known load strategy.
func (s LoadStrategy) Valid() bool {
	switch s {
	case StrategyInsert, StrategyUpsert, StrategyTruncateInsert:
		return true
	}
	return false
}

// SourceType identifies where the source columns were extracted from.
type SourceType string

const (
	SourceCSV          SourceType = "csv"
	SourceGoogleSheets SourceType = "google_sheets"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	return t == SourceCSV || t == SourceGoogleSheets
}

// DestinationType identifies the destination database flavor.
type DestinationType string

const (
	DestPostgreSQL DestinationType = "postgresql"
	DestRedshift   DestinationType = "redshift"
)

// Valid reports whether t is a known destination type.
func (t DestinationType) Valid() bool {
	return t == DestPostgreSQL || t == DestRedshift
}

// SourceColumn is one column extracted from an uploaded file or spreadsheet.
type SourceColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableColumn is one column of the live destination table schema.
// Supplied by the schema inspector; read-only inside the core.
type TableColumn struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

// MappingKind distinguishes the two mapping variants. A sourced mapping
// carries a source column; a table-only mapping exists solely on the
// destination side (synthesized during reconciliation, or calculated from
// an expression). Keeping the kind explicit rules out invalid combinations
// like a calculated mapping that also claims a source column.
type MappingKind string

const (
	KindSourced   MappingKind = "sourced"
	KindTableOnly MappingKind = "table_only"
)

// ColumnMapping is one row of the reconciliation result: a source column
// bound (or not) to a destination column, plus everything the load needs
// to know about the destination side.
type ColumnMapping struct {
	Kind MappingKind `json:"kind"`

	// SourceColumn and SourceType are set only when Kind is KindSourced.
	SourceColumn string `json:"sourceColumn,omitempty"`
	SourceType   string `json:"sourceType,omitempty"`

	// DestinationColumn is empty when the mapping is unmapped and needs
	// user action. An unmapped mapping must also be excluded.
	DestinationColumn string `json:"destinationColumn,omitempty"`
	DestinationType   string `json:"destinationType,omitempty"`

	// Transformations are applied in listed order before the load.
	Transformations []string `json:"transformations,omitempty"`

	Nullable   bool    `json:"isNullable"`
	Default    *string `json:"defaultValue,omitempty"`
	PrimaryKey bool    `json:"isPrimaryKey"`
	Exclude    bool    `json:"exclude"`

	// Calculated marks a table-only column computed from Expression
	// rather than loaded from the source.
	Calculated bool   `json:"isCalculated,omitempty"`
	Expression string `json:"expression,omitempty"`

	// Order is the stable ordering key, unique within a mapping set and
	// assigned monotonically on creation.
	Order int `json:"columnOrder"`
}

// NewSourcedMapping builds the initial, unresolved mapping for a source
// column. Reconciliation binds it to a destination column later.
func NewSourcedMapping(col SourceColumn, order int) ColumnMapping {
	return ColumnMapping{
		Kind:         KindSourced,
		SourceColumn: col.Name,
		SourceType:   col.Type,
		Nullable:     col.Nullable,
		Order:        order,
	}
}

// NewTableOnlyMapping builds a mapping for a destination column with no
// corresponding source column.
func NewTableOnlyMapping(col TableColumn, order int, exclude bool) ColumnMapping {
	return ColumnMapping{
		Kind:              KindTableOnly,
		DestinationColumn: col.Name,
		DestinationType:   col.Type,
		Nullable:          col.Nullable,
		Default:           col.Default,
		Exclude:           exclude,
		Order:             order,
	}
}

// Sourced reports whether the mapping carries a source column.
func (m ColumnMapping) Sourced() bool { return m.Kind == KindSourced }

// Active reports whether the mapping is destined for the load.
func (m ColumnMapping) Active() bool { return !m.Exclude }

// Mapped reports whether the mapping is bound to a destination column.
func (m ColumnMapping) Mapped() bool { return m.DestinationColumn != "" }

// ValidationResult is the outcome of validating one wizard step.
// Errors block progression; warnings are advisory. A nil Warnings slice
// is equivalent to an empty one.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *ValidationResult) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *ValidationResult) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// finalize sets Valid from the collected errors and normalizes Errors to
// an empty slice so JSON renders [] rather than null.
func (r *ValidationResult) finalize() ValidationResult {
	r.Valid = len(r.Errors) == 0
	if r.Errors == nil {
		r.Errors = []string{}
	}
	return *r
}
