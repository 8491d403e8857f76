package engine_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"lite2flake/internal/dialect"
	"lite2flake/internal/engine"
	"lite2flake/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedFinancialCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "financial", "financial.sqlite")
	s := engine.NewSeeder(&dialect.SQLiteDialect{}, nil)

	var progress int
	results, err := s.Seed(context.Background(), path, engine.FinancialCorpus, 20, func() { progress++ })
	require.NoError(t, err)
	require.Len(t, results, len(engine.FinancialCorpus))
	for _, r := range results {
		assert.Equal(t, 20, r.Target, r.Table)
		assert.Equal(t, 20, r.Actual, r.Table)
	}
	assert.Equal(t, 20*len(engine.FinancialCorpus), progress)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	tables, err := schema.NewCatalog(db, &dialect.SQLiteDialect{}, "financial").Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "loan", "order"}, tables)

	// Every order references a seeded account.
	var orphans int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "order" o LEFT JOIN account a ON a.account_id = o.account_id WHERE a.account_id IS NULL`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestGenerateValue(t *testing.T) {
	assert.IsType(t, int(0), engine.GenerateValue(dialect.ColumnDef{Name: "district_id", Type: "INTEGER"}))
	assert.IsType(t, float64(0), engine.GenerateValue(dialect.ColumnDef{Name: "amount", Type: "REAL"}))
	assert.IsType(t, "", engine.GenerateValue(dialect.ColumnDef{Name: "k_symbol", Type: "TEXT"}))
	assert.IsType(t, []byte(nil), engine.GenerateValue(dialect.ColumnDef{Name: "photo", Type: "BLOB"}))
	assert.Contains(t, engine.GenerateValue(dialect.ColumnDef{Name: "email", Type: "VARCHAR(50)"}), "@")

	d, ok := engine.GenerateValue(dialect.ColumnDef{Name: "date", Type: "DATE"}).(string)
	require.True(t, ok)
	assert.Len(t, d, len("2006-01-02"))
}
