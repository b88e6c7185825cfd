package wizard

// strategy.go encodes the per-strategy structural rules.
//
// upsert merges rows against the live table structure, so it gets no
// structural freedom at all: no new tables, no renames, no calculated or
// excluded columns. truncate_insert recreates the table on every run, so
// renames and schema drift are safe, and optional table-only columns
// default to excluded to reduce user friction.

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Capabilities lists what a load strategy structurally permits.
type Capabilities struct {
	AllowNewTable   bool `json:"allowNewTable"`
	AllowRename     bool `json:"allowRename"`
	AllowCalculated bool `json:"allowCalculated"`
	AllowExclude    bool `json:"allowExclude"`
}

// CapabilitiesFor returns the capability row for the given strategy.
// Unknown strategies get the most restrictive row.
func CapabilitiesFor(s LoadStrategy) Capabilities {
	switch s {
	case StrategyInsert:
		return Capabilities{
			AllowNewTable:   true,
			AllowCalculated: true,
			AllowExclude:    true,
		}
	case StrategyTruncateInsert:
		return Capabilities{
			AllowNewTable:   true,
			AllowRename:     true,
			AllowCalculated: true,
			AllowExclude:    true,
		}
	case StrategyUpsert:
		return Capabilities{}
	default:
		return Capabilities{}
	}
}

// Policy holds the caller-supplied knobs of the reconciliation and DDL
// components: which column names are system-managed (regenerated by the
// DDL generator rather than mapped), and overrides for the source-type to
// SQL-type translation.
type Policy struct {
	SystemColumns []string          `yaml:"system_columns"`
	TypeOverrides map[string]string `yaml:"type_overrides"`
}

// DefaultPolicy returns the shipped policy: created_at and updated_at are
// system-managed, no type overrides.
func DefaultPolicy() Policy {
	return Policy{SystemColumns: []string{"created_at", "updated_at"}}
}

// LoadPolicyFile reads a Policy from a YAML file. Missing keys fall back
// to the defaults.
func LoadPolicyFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}

	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if len(p.SystemColumns) == 0 {
		p.SystemColumns = DefaultPolicy().SystemColumns
	}
	return p, nil
}

// IsSystemColumn reports whether name is in the policy's system-managed
// set. Comparison is case-insensitive and exact (no substring matching).
func (p Policy) IsSystemColumn(name string) bool {
	for _, c := range p.SystemColumns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// DefaultExclude decides whether a synthesized table-only mapping for col
// starts out excluded under the given strategy.
//
// upsert forbids exclusion entirely, so table-only columns are never
// auto-excluded. truncate_insert auto-excludes optional columns (nullable
// or defaulted); required columns stay included so the user has to deal
// with them. insert never auto-excludes.
func (p Policy) DefaultExclude(col TableColumn, strategy LoadStrategy) bool {
	switch strategy {
	case StrategyTruncateInsert:
		return col.Nullable || col.Default != nil
	case StrategyUpsert:
		return false
	default:
		return false
	}
}
