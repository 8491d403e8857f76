package schema_test

import (
	"testing"

	"lite2flake/internal/dialect"
	"lite2flake/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := schema.NewRegistry()
	require.NoError(t, r.Register(schema.Override{
		Database: "Retail",
		Table:    "Select",
		Columns: []schema.OverrideColumn{
			{Name: "sku", Type: "varchar"},
			{Name: "qty", Type: "NUMBER"},
			{Name: "sold at", Type: "TIMESTAMP_NTZ"},
		},
	}))

	spec, ok := r.Lookup("retail", "SELECT")
	require.True(t, ok)
	assert.Equal(t, `RETAIL_TABLE_"SELECT"`, spec.QualifiedName)
	assert.Equal(t, "retail", spec.Database)
	assert.Equal(t, []schema.TargetColumnSpec{
		{Name: "SKU", Type: dialect.TypeVarchar},
		{Name: "QTY", Type: dialect.TypeNumber},
		{Name: `"SOLD AT"`, Type: dialect.TypeTimestamp},
	}, spec.Columns)

	// Lookups hand out copies.
	spec.Columns[0].Name = "CHANGED"
	again, _ := r.Lookup("retail", "select")
	assert.Equal(t, "SKU", again.Columns[0].Name)

	_, ok = r.Lookup("retail", "other")
	assert.False(t, ok)
}

func TestRegistryRejectsBadOverrides(t *testing.T) {
	r := schema.NewRegistry()
	assert.Error(t, r.Register(schema.Override{Database: "a", Table: "b"}))
	assert.Error(t, r.Register(schema.Override{Table: "b", Columns: []schema.OverrideColumn{{Name: "x", Type: "NUMBER"}}}))
	assert.Error(t, r.Register(schema.Override{Database: "a", Table: "b", Columns: []schema.OverrideColumn{{Name: "x", Type: "GEOGRAPHY"}}}))
	assert.Equal(t, 0, r.Len())
}

func TestDefaultRegistry(t *testing.T) {
	r := schema.DefaultRegistry()
	assert.Equal(t, 1, r.Len())
	_, ok := r.Lookup("financial", "order")
	assert.True(t, ok)

	var nilRegistry *schema.Registry
	_, ok = nilRegistry.Lookup("financial", "order")
	assert.False(t, ok)
}
