package wizard

// ddl.go renders the CREATE TABLE statement for a new or recreated
// destination table.
//
// Rendering is deterministic: the same mapping set, in the same order,
// always produces byte-identical output so the preview stays diff-stable
// while the user edits mappings.

import (
	"fmt"
	"sort"
	"strings"
)

// typeMapping translates extracted source types to SQL column types.
// Unknown types fall back to TEXT.
var typeMapping = map[string]string{
	// Text
	"TEXT":    "TEXT",
	"VARCHAR": "VARCHAR(255)",
	"STRING":  "TEXT",

	// Numeric
	"INTEGER": "INTEGER",
	"INT":     "INTEGER",
	"BIGINT":  "BIGINT",
	"NUMERIC": "NUMERIC",
	"NUMBER":  "NUMERIC",
	"FLOAT":   "NUMERIC",
	"DECIMAL": "DECIMAL(18,2)",

	// Date/time
	"TIMESTAMP":   "TIMESTAMP",
	"TIMESTAMPTZ": "TIMESTAMP WITH TIME ZONE",
	"DATE":        "DATE",
	"TIME":        "TIME",
	"DATETIME":    "TIMESTAMP",

	// Boolean
	"BOOLEAN": "BOOLEAN",
	"BOOL":    "BOOLEAN",

	// JSON
	"JSON":  "JSON",
	"JSONB": "JSONB",
}

// DDLGenerator renders schema statements under a given policy. The policy
// contributes the system-managed audit columns appended to every new
// table and any site-local type overrides.
type DDLGenerator struct {
	policy Policy
}

// NewDDLGenerator returns a generator using the given policy.
func NewDDLGenerator(policy Policy) *DDLGenerator {
	return &DDLGenerator{policy: policy}
}

// Generate renders the CREATE TABLE statement for the active (included)
// mappings, preserving their column order. Each column definition emits,
// in fixed order: quoted name, type, NOT NULL if not nullable, DEFAULT if
// present. System-managed audit columns are appended unless an active
// mapping already claims their names, and the PK-flagged columns become a
// single table-level PRIMARY KEY constraint so composite keys render as
// one valid clause.
//
// An empty active set yields a no-op comment, never a zero-column
// statement.
func (g *DDLGenerator) Generate(schema, table string, mappings []ColumnMapping, dest DestinationType) string {
	var active []ColumnMapping
	for _, m := range mappings {
		if m.Active() && m.Mapped() {
			active = append(active, m)
		}
	}
	sortByOrder(active)

	if len(active) == 0 {
		return fmt.Sprintf("-- no columns selected for %s.%s; nothing to create", schema, table)
	}

	claimed := make(map[string]bool, len(active))
	defs := make([]string, 0, len(active)+3)
	var pkCols []string
	for _, m := range active {
		defs = append(defs, g.columnDefinition(m, dest))
		claimed[strings.ToLower(m.DestinationColumn)] = true
		if m.PrimaryKey {
			pkCols = append(pkCols, quoteIdent(m.DestinationColumn))
		}
	}

	for _, name := range g.policy.SystemColumns {
		if claimed[strings.ToLower(name)] {
			continue
		}
		defs = append(defs, quoteIdent(name)+" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP")
	}

	if len(pkCols) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pkCols, ", ")+")")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s.%s (\n", quoteIdent(schema), quoteIdent(table))
	b.WriteString("    " + strings.Join(defs, ",\n    "))
	b.WriteString("\n);")
	return b.String()
}

// columnDefinition renders one column line.
func (g *DDLGenerator) columnDefinition(m ColumnMapping, dest DestinationType) string {
	sqlType := g.mapType(m.DestinationType, dest)

	var b strings.Builder
	b.WriteString(quoteIdent(m.DestinationColumn))
	b.WriteString(" ")
	b.WriteString(sqlType)
	if !m.Nullable {
		b.WriteString(" NOT NULL")
	}
	if m.Default != nil && *m.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(renderDefault(*m.Default, sqlType))
	}
	return b.String()
}

// mapType translates a source/destination type tag into a SQL type.
// Policy overrides win, then the built-in table; parameterized VARCHAR
// and DECIMAL pass through; everything else degrades to TEXT.
func (g *DDLGenerator) mapType(typ string, dest DestinationType) string {
	upper := strings.ToUpper(strings.TrimSpace(typ))

	if override, ok := g.policy.TypeOverrides[strings.ToLower(typ)]; ok {
		return override
	}

	if dest == DestRedshift && (upper == "JSON" || upper == "JSONB") {
		// Redshift has no JSON column type; SUPER is its semi-structured type.
		return "SUPER"
	}

	if mapped, ok := typeMapping[upper]; ok {
		return mapped
	}
	if strings.HasPrefix(upper, "VARCHAR(") || strings.HasPrefix(upper, "DECIMAL(") || strings.HasPrefix(upper, "NUMERIC(") {
		return upper
	}
	return "TEXT"
}

// renderDefault quotes the default value for string-typed columns and
// passes everything else through verbatim.
func renderDefault(value, sqlType string) string {
	if strings.HasPrefix(sqlType, "TEXT") || strings.HasPrefix(sqlType, "VARCHAR") || strings.HasPrefix(sqlType, "CHAR") {
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	}
	return value
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sortByOrder stably sorts mappings by their column order key.
func sortByOrder(mappings []ColumnMapping) {
	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].Order < mappings[j].Order
	})
}
