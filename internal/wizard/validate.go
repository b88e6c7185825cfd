package wizard

// validate.go holds one validation function per wizard step. Each is a
// pure function from WizardState to ValidationResult: errors block
// progression, warnings are advisory, and nothing in here ever panics or
// returns a Go error. Malformed configuration is always expressed as
// result data for the caller to render.

import (
	"fmt"
	"regexp"
	"strings"
)

// Batch size bounds for a single load run.
const (
	MinBatchSize     = 100
	MaxBatchSize     = 100000
	DefaultBatchSize = 10000
)

// maxIdentifierLen is the PostgreSQL identifier limit.
const maxIdentifierLen = 63

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// reservedIdentifiers are SQL keywords rejected as schema/table names.
var reservedIdentifiers = map[string]bool{
	"user": true, "table": true, "column": true, "index": true,
	"view": true, "select": true, "insert": true, "update": true,
	"delete": true, "create": true, "drop": true, "alter": true,
	"grant": true, "revoke": true,
}

// ValidateStep dispatches to the validator for the given step.
func ValidateStep(s WizardState, step Step) ValidationResult {
	switch step {
	case StepSource:
		return ValidateSource(s)
	case StepJobDetails:
		return ValidateJobDetails(s)
	case StepDestination:
		return ValidateDestination(s)
	case StepColumnMapping:
		return ValidateColumnMapping(s)
	case StepSchedule:
		return ValidateSchedule(s)
	case StepReview:
		return ValidateReview(s)
	default:
		var r ValidationResult
		r.addError(fmt.Sprintf("unknown step %d", step))
		return r.finalize()
	}
}

// ValidateSource checks the source selection step.
func ValidateSource(s WizardState) ValidationResult {
	var r ValidationResult
	if !s.Source.Type.Valid() {
		r.addError("Source type must be selected")
	}
	if strings.TrimSpace(s.Source.Location) == "" {
		r.addError("Source file or spreadsheet must be selected")
	}
	if len(s.Source.Columns) == 0 {
		r.addError("Source must contain at least one column")
	}
	return r.finalize()
}

// ValidateJobDetails checks the job metadata step: non-empty name, batch
// size within bounds, and a known load strategy.
func ValidateJobDetails(s WizardState) ValidationResult {
	var r ValidationResult
	if strings.TrimSpace(s.Details.Name) == "" {
		r.addError("Job name must not be empty")
	}
	if s.Details.BatchSize < MinBatchSize || s.Details.BatchSize > MaxBatchSize {
		r.addError(fmt.Sprintf("Batch size must be between %d and %d", MinBatchSize, MaxBatchSize))
	}
	if !s.Details.Strategy.Valid() {
		r.addError("Load strategy must be selected")
	}
	return r.finalize()
}

// ValidateDestination checks the destination step: credential, schema and
// table all present, identifiers well-formed, and new-table creation only
// under a strategy that permits it.
func ValidateDestination(s WizardState) ValidationResult {
	var r ValidationResult
	d := s.Destination

	if strings.TrimSpace(d.CredentialID) == "" {
		r.addError("Destination credential must be selected")
	}
	if strings.TrimSpace(d.Schema) == "" {
		r.addError("Schema name must not be empty")
	} else if msg := checkIdentifier(d.Schema, "Schema"); msg != "" {
		r.addError(msg)
	}
	if strings.TrimSpace(d.Table) == "" {
		r.addError("Table name must not be empty")
	} else if msg := checkIdentifier(d.Table, "Table"); msg != "" {
		r.addError(msg)
	}

	if d.CreateNewTable && !CapabilitiesFor(s.Details.Strategy).AllowNewTable {
		r.addError(fmt.Sprintf("Load strategy %q requires an existing table", s.Details.Strategy))
	}
	return r.finalize()
}

// ValidateColumnMapping checks the mapping step. Structural rules apply
// to every strategy; upsert adds its key rules on top, and insert or
// truncate_insert downgrade a missing primary key to a warning.
func ValidateColumnMapping(s WizardState) ValidationResult {
	var r ValidationResult
	caps := CapabilitiesFor(s.Details.Strategy)

	var active []ColumnMapping
	for _, m := range s.Mappings {
		if m.Active() {
			active = append(active, m)
		}
	}

	if len(active) == 0 {
		r.addError("At least one column must be included in the load")
	}

	// An active mapping without a destination must never reach the load.
	for _, m := range active {
		if !m.Mapped() {
			r.addError(fmt.Sprintf("Column %q is not mapped to a destination column", m.SourceColumn))
		}
	}

	if dups := duplicateDestinations(active); len(dups) > 0 {
		r.addError("Duplicate destination columns: " + strings.Join(dups, ", "))
	}

	for _, m := range s.Mappings {
		for _, t := range m.Transformations {
			if !KnownTransformation(t) {
				r.addError(fmt.Sprintf("Unknown transformation %q on column %q", t, m.DestinationColumn))
			}
		}
	}

	if !caps.AllowRename {
		for _, m := range active {
			if m.Sourced() && m.Mapped() && !strings.EqualFold(m.SourceColumn, m.DestinationColumn) {
				r.addError(fmt.Sprintf("Load strategy %q does not allow renaming column %q", s.Details.Strategy, m.SourceColumn))
			}
		}
	}
	if !caps.AllowExclude {
		for _, m := range s.Mappings {
			if m.Exclude {
				r.addError(fmt.Sprintf("Load strategy %q requires every column to be loaded; %q is excluded", s.Details.Strategy, mappingName(m)))
			}
		}
	}
	if !caps.AllowCalculated {
		for _, m := range s.Mappings {
			if m.Calculated {
				r.addError(fmt.Sprintf("Load strategy %q does not allow calculated columns; remove %q", s.Details.Strategy, m.DestinationColumn))
			}
		}
	}

	pk := make(map[string]bool)
	for _, m := range active {
		if m.PrimaryKey && m.Mapped() {
			pk[strings.ToLower(m.DestinationColumn)] = true
		}
	}

	switch s.Details.Strategy {
	case StrategyUpsert:
		if len(pk) == 0 {
			r.addError("Upsert requires at least one Primary Key column")
		}
		if len(s.UpsertKeys) == 0 {
			r.addError("Upsert requires at least one upsert key")
		}
		var invalid []string
		for _, key := range s.UpsertKeys {
			if !pk[strings.ToLower(key)] {
				invalid = append(invalid, key)
			}
		}
		if len(invalid) > 0 {
			r.addError("Upsert keys must be Primary Key columns: " + strings.Join(invalid, ", "))
		}
	case StrategyInsert, StrategyTruncateInsert:
		if len(pk) == 0 {
			r.addWarning("No primary key column selected")
		}
	}

	// A required table-only column with nothing feeding it will fail the
	// load, but the user may intend to fill it via a calculated
	// expression later, so this stays advisory.
	for _, m := range active {
		if !m.Sourced() && !m.Calculated && !m.Nullable && m.Default == nil && m.Mapped() {
			r.addWarning(fmt.Sprintf("Column %q is NOT NULL with no default and has no source", m.DestinationColumn))
		}
	}

	return r.finalize()
}

// ValidateSchedule checks the optional schedule step. No schedule at all
// is valid; a supplied cron expression must have 5 or 6 fields.
func ValidateSchedule(s WizardState) ValidationResult {
	var r ValidationResult
	if s.Schedule == nil {
		return r.finalize()
	}

	expr := strings.TrimSpace(s.Schedule.Cron)
	if expr == "" {
		r.addError("Cron expression must not be empty")
		return r.finalize()
	}
	if n := len(strings.Fields(expr)); n != 5 && n != 6 {
		r.addError(fmt.Sprintf("Cron expression must have 5 or 6 fields, got %d", n))
	}
	return r.finalize()
}

// ValidateReview is the terminal confirmation step; it is always valid.
func ValidateReview(WizardState) ValidationResult {
	var r ValidationResult
	return r.finalize()
}

// duplicateDestinations returns destination names claimed by more than
// one active mapping, preserving first-seen casing and order.
func duplicateDestinations(active []ColumnMapping) []string {
	seen := make(map[string]int)
	var dups []string
	for _, m := range active {
		if !m.Mapped() {
			continue
		}
		key := strings.ToLower(m.DestinationColumn)
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, m.DestinationColumn)
		}
	}
	return dups
}

// checkIdentifier validates a schema or table name. Returns an empty
// string when valid, otherwise the error message.
func checkIdentifier(name, label string) string {
	if !identifierPattern.MatchString(name) {
		return fmt.Sprintf("%s name %q must start with a letter or underscore and contain only letters, digits, underscores, and hyphens", label, name)
	}
	if len(name) > maxIdentifierLen {
		return fmt.Sprintf("%s name %q is too long (max %d characters)", label, name, maxIdentifierLen)
	}
	if reservedIdentifiers[strings.ToLower(name)] {
		return fmt.Sprintf("%s name %q is a SQL reserved word", label, name)
	}
	return ""
}

// mappingName returns the best display name for a mapping in messages.
func mappingName(m ColumnMapping) string {
	if m.DestinationColumn != "" {
		return m.DestinationColumn
	}
	return m.SourceColumn
}
