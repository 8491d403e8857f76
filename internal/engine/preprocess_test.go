package engine_test

import (
	"database/sql"
	"testing"

	"lite2flake/internal/dialect"
	"lite2flake/internal/engine"
	"lite2flake/internal/schema"

	"github.com/stretchr/testify/assert"
)

func text(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestPrepareNullsEmptyNumbers(t *testing.T) {
	spec := &schema.TargetTableSpec{Columns: []schema.TargetColumnSpec{
		{Name: "ID", Type: dialect.TypeNumber},
		{Name: "BALANCE", Type: dialect.TypeNumber},
	}}
	in := &schema.Frame{Columns: []string{"id", "balance"}, Rows: [][]sql.NullString{{text("5"), text("")}}}

	out := engine.Prepare(in, spec)

	assert.Equal(t, []string{"ID", "BALANCE"}, out.Columns)
	assert.Equal(t, []sql.NullString{text("5"), {}}, out.Rows[0])
	// The input is left alone.
	assert.Equal(t, []string{"id", "balance"}, in.Columns)
	assert.Equal(t, text(""), in.Rows[0][1])
}

func TestPrepareLeavesTextAndUnknownColumns(t *testing.T) {
	spec := &schema.TargetTableSpec{Columns: []schema.TargetColumnSpec{
		{Name: "NOTE", Type: dialect.TypeVarchar},
		{Name: "CREATED", Type: dialect.TypeTimestamp},
		{Name: "RATE", Type: dialect.TypeFloat},
		{Name: "ACTIVE", Type: dialect.TypeBoolean},
	}}
	in := &schema.Frame{
		Columns: []string{"note", "created", "rate", "active", "extra"},
		Rows:    [][]sql.NullString{{text(""), text(""), text(""), text(""), text("")}},
	}

	out := engine.Prepare(in, spec)
	assert.Equal(t, []sql.NullString{text(""), {}, {}, text(""), text("")}, out.Rows[0])
}

func TestPrepareQuotedSpecColumns(t *testing.T) {
	spec := &schema.TargetTableSpec{Columns: []schema.TargetColumnSpec{
		{Name: `"K SYMBOL"`, Type: dialect.TypeNumber},
	}}
	in := &schema.Frame{Columns: []string{"k symbol"}, Rows: [][]sql.NullString{{text("")}}}

	out := engine.Prepare(in, spec)
	assert.Equal(t, []string{"K SYMBOL"}, out.Columns)
	assert.False(t, out.Rows[0][0].Valid)
}

func TestPrepareLowercaseLoadColumns(t *testing.T) {
	spec := &schema.TargetTableSpec{
		LowercaseLoadColumns: true,
		Columns: []schema.TargetColumnSpec{
			{Name: "ORDER_ID", Type: dialect.TypeNumber},
			{Name: "AMOUNT", Type: dialect.TypeFloat},
		},
	}
	in := &schema.Frame{Columns: []string{"Order_Id", "amount"}, Rows: [][]sql.NullString{{text("1"), text("")}}}

	out := engine.Prepare(in, spec)
	assert.Equal(t, []string{"order_id", "amount"}, out.Columns)
	assert.Equal(t, []sql.NullString{text("1"), {}}, out.Rows[0])
}

func TestPrepareWithoutSpec(t *testing.T) {
	in := &schema.Frame{Columns: []string{"a"}, Rows: [][]sql.NullString{{text("")}}}
	out := engine.Prepare(in, nil)
	assert.Equal(t, []string{"A"}, out.Columns)
	assert.Equal(t, text(""), out.Rows[0][0])
}
