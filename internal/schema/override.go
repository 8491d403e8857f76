package schema

import (
	"fmt"
	"strings"

	"lite2flake/internal/dialect"
)

// Override replaces catalog introspection for one (database, table) pair
// whose introspected schema the warehouse will not accept.
type Override struct {
	Database   string `mapstructure:"database"`
	Table      string `mapstructure:"table"`
	TargetName string `mapstructure:"target_name"`

	// LowercaseColumns lower-cases load column names for this table.
	LowercaseColumns bool             `mapstructure:"lowercase_columns"`
	Columns          []OverrideColumn `mapstructure:"columns"`
}

type OverrideColumn struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

type overrideKey struct {
	database, table string
}

func keyOf(database, table string) overrideKey {
	return overrideKey{strings.ToLower(database), strings.ToLower(table)}
}

// Registry holds manual schema overrides keyed by (database, table),
// case-insensitively.
type Registry struct {
	specs map[overrideKey]*TargetTableSpec
}

func NewRegistry() *Registry {
	return &Registry{specs: make(map[overrideKey]*TargetTableSpec)}
}

// DefaultOverrides are the overrides known to be required for the bundled
// corpus: financial.order has a catalog the warehouse rejects.
func DefaultOverrides() []Override {
	return []Override{{
		Database:         "financial",
		Table:            "order",
		TargetName:       `"ORDER"`,
		LowercaseColumns: true,
		Columns: []OverrideColumn{
			{Name: "ORDER_ID", Type: "NUMBER"},
			{Name: "ACCOUNT_ID", Type: "NUMBER"},
			{Name: "BANK_TO", Type: "VARCHAR"},
			{Name: "ACCOUNT_TO", Type: "VARCHAR"},
			{Name: "AMOUNT", Type: "FLOAT"},
			{Name: "K_SYMBOL", Type: "VARCHAR"},
		},
	}}
}

// DefaultRegistry returns a registry holding DefaultOverrides.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, o := range DefaultOverrides() {
		if err := r.Register(o); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds or replaces an override.
func (r *Registry) Register(o Override) error {
	if o.Database == "" || o.Table == "" {
		return fmt.Errorf("override needs both database and table")
	}
	if len(o.Columns) == 0 {
		return fmt.Errorf("override %s.%s declares no columns", o.Database, o.Table)
	}

	targetName := o.TargetName
	if targetName == "" {
		targetName = o.Table
	}
	spec := &TargetTableSpec{
		Database:             o.Database,
		Table:                o.Table,
		QualifiedName:        dialect.QualifiedName(o.Database, targetName),
		LowercaseLoadColumns: o.LowercaseColumns,
	}
	for _, c := range o.Columns {
		t, err := dialect.ParseTargetType(c.Type)
		if err != nil {
			return fmt.Errorf("override %s.%s column %s: %w", o.Database, o.Table, c.Name, err)
		}
		spec.Columns = append(spec.Columns, TargetColumnSpec{Name: dialect.CanonicalName(c.Name), Type: t})
	}
	r.specs[keyOf(o.Database, o.Table)] = spec
	return nil
}

// Lookup returns a copy of the override spec for a table, if any.
func (r *Registry) Lookup(database, table string) (*TargetTableSpec, bool) {
	if r == nil {
		return nil, false
	}
	spec, ok := r.specs[keyOf(database, table)]
	if !ok {
		return nil, false
	}
	cp := *spec
	cp.Database, cp.Table = database, table
	cp.Columns = append([]TargetColumnSpec(nil), spec.Columns...)
	return &cp, true
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.specs)
}
