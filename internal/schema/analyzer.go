package schema

import (
	"database/sql"
	"fmt"

	"lite2flake/internal/dialect"
)

// Catalog reads table metadata from one source database file.
type Catalog struct {
	db       *sql.DB
	d        dialect.Dialect
	database string
}

func NewCatalog(db *sql.DB, d dialect.Dialect, database string) *Catalog {
	return &Catalog{db: db, d: d, database: database}
}

func (c *Catalog) Database() string {
	return c.database
}

// Tables lists user tables in name order.
func (c *Catalog) Tables() ([]string, error) {
	rows, err := c.db.Query(c.d.GetTablesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// Table reads the ordered column list of one table.
func (c *Catalog) Table(name string) (*SourceTable, error) {
	rows, err := c.db.Query(c.d.GetColumnsQuery(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query columns (table: %s): %w", name, err)
	}
	defer rows.Close()

	t := &SourceTable{Database: c.database, Name: name}
	for rows.Next() {
		var (
			cid, notNull, pk int
			cName            string
			cType, dflt      sql.NullString
		)
		if err := rows.Scan(&cid, &cName, &cType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", name, err)
		}
		t.Columns = append(t.Columns, &SourceColumn{
			Name:         cName,
			DeclaredType: c.d.NormalizeType(cType.String),
			Nullable:     notNull == 0,
			IsPK:         pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns (table: %s): %w", name, err)
	}
	return t, nil
}
