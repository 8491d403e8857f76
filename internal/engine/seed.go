package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lite2flake/internal/dialect"

	"go.uber.org/zap"
)

// SeedTable describes a table of the demo corpus. Refs maps a column to the
// table whose primary keys it draws values from.
type SeedTable struct {
	Name    string
	Columns []dialect.ColumnDef
	Refs    map[string]string
}

// SeedResult reports what a seed run wrote to one table.
type SeedResult struct {
	Table  string
	Target int
	Actual int
}

// FinancialCorpus is a small banking schema. "order" is a reserved word in
// the warehouse, which exercises quoting and the bundled override.
var FinancialCorpus = []SeedTable{
	{
		Name: "account",
		Columns: []dialect.ColumnDef{
			{Name: "account_id", Type: "INTEGER", PK: true},
			{Name: "district_id", Type: "INTEGER"},
			{Name: "frequency", Type: "TEXT"},
			{Name: "date", Type: "DATE"},
		},
	},
	{
		Name: "order",
		Columns: []dialect.ColumnDef{
			{Name: "order_id", Type: "INTEGER", PK: true},
			{Name: "account_id", Type: "INTEGER"},
			{Name: "bank_to", Type: "TEXT"},
			{Name: "account_to", Type: "INTEGER"},
			{Name: "amount", Type: "REAL"},
			{Name: "k_symbol", Type: "TEXT"},
		},
		Refs: map[string]string{"account_id": "account"},
	},
	{
		Name: "loan",
		Columns: []dialect.ColumnDef{
			{Name: "loan_id", Type: "INTEGER", PK: true},
			{Name: "account_id", Type: "INTEGER"},
			{Name: "date", Type: "DATE"},
			{Name: "amount", Type: "INTEGER"},
			{Name: "duration", Type: "INTEGER"},
			{Name: "payments", Type: "REAL"},
			{Name: "status", Type: "TEXT"},
		},
		Refs: map[string]string{"account_id": "account"},
	},
}

// Seeder writes generated rows into a source database file.
type Seeder struct {
	d   dialect.Dialect
	log *zap.Logger
}

func NewSeeder(d dialect.Dialect, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{d: d, log: log}
}

// Seed creates the tables in path, in order, and fills each with count rows.
// Tables listed in a Refs map must come before the tables that reference
// them.
func (s *Seeder) Seed(ctx context.Context, path string, tables []SeedTable, count int, onProgress func()) ([]SeedResult, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open(s.d.DriverName(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer db.Close()

	var results []SeedResult
	pkPool := make(map[string][]any)

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, s.d.CreateTableQuery(table.Name, table.Columns)); err != nil {
			return results, fmt.Errorf("failed to create %s: %w", table.Name, err)
		}

		// 기존 데이터 건수 확인
		initial, err := s.count(ctx, db, table.Name)
		if err != nil {
			return results, err
		}

		inserted, err := s.fill(ctx, db, table, count, pkPool, onProgress)
		if err != nil {
			return results, err
		}

		// 실제 들어간 개수 확인 (Verification)
		final, err := s.count(ctx, db, table.Name)
		if err != nil {
			return results, err
		}
		results = append(results, SeedResult{Table: table.Name, Target: count, Actual: final - initial})
		s.log.Info("Seeded table", zap.String("table", table.Name), zap.Int("rows", inserted))

		// PK 풀 갱신 (다음 자식 테이블을 위해)
		if err := s.collectKeys(ctx, db, table, pkPool); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (s *Seeder) fill(ctx context.Context, db *sql.DB, table SeedTable, count int, pkPool map[string][]any, onProgress func()) (int, error) {
	colNames := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		colNames[i] = c.Name
	}
	query := s.d.InsertQuery(table.Name, colNames)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	usedPKs := make(map[any]bool)
	inserted, attempts := 0, 0
	// 목표치 채우기 로직 (중복 시 재시도)
	for inserted < count && attempts < count*10 {
		attempts++
		values := make([]any, len(table.Columns))
		duplicate := false
		for i, c := range table.Columns {
			if ref, ok := table.Refs[c.Name]; ok && len(pkPool[ref]) > 0 {
				values[i] = pkPool[ref][(attempts-1)%len(pkPool[ref])]
				continue
			}
			values[i] = GenerateValue(c)
			if c.PK {
				if usedPKs[values[i]] {
					duplicate = true
					break
				}
				usedPKs[values[i]] = true
			}
		}
		if duplicate {
			continue
		}

		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			if attempts <= 3 {
				s.log.Debug("Insert failed", zap.String("table", table.Name), zap.Int("attempt", attempts), zap.Error(err))
			}
			continue
		}
		inserted++
		if onProgress != nil {
			onProgress()
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", table.Name, err)
	}
	return inserted, nil
}

func (s *Seeder) count(ctx context.Context, db *sql.DB, table string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.d.QuoteIdent(table))).Scan(&n)
	return n, err
}

func (s *Seeder) collectKeys(ctx context.Context, db *sql.DB, table SeedTable, pkPool map[string][]any) error {
	var pk string
	for _, c := range table.Columns {
		if c.PK {
			pk = c.Name
			break
		}
	}
	if pk == "" {
		return nil
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", s.d.QuoteIdent(pk), s.d.QuoteIdent(table.Name)))
	if err != nil {
		return err
	}
	defer rows.Close()

	key := strings.ToLower(table.Name)
	pkPool[key] = pkPool[key][:0]
	for rows.Next() {
		var id any
		if err := rows.Scan(&id); err != nil {
			return err
		}
		pkPool[key] = append(pkPool[key], id)
	}
	return rows.Err()
}
