package dialect

import (
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite"
}

func (d *SQLiteDialect) GetTablesQuery() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
}

// GetColumnsQuery returns cid, name, type, notnull, dflt_value, pk per column.
// The table name is always quoted, so reserved words and odd names are safe.
func (d *SQLiteDialect) GetColumnsQuery(table string) string {
	return fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdent(table))
}

func (d *SQLiteDialect) SelectAllQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM %s", d.QuoteIdent(table))
}

func (d *SQLiteDialect) InsertQuery(table string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdent(c)
	}
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QuoteIdent(table), strings.Join(quoted, ", "), vals)
}

func (d *SQLiteDialect) CreateTableQuery(table string, cols []ColumnDef) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		def := d.QuoteIdent(c.Name) + " " + c.Type
		if c.PK {
			def += " PRIMARY KEY"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.QuoteIdent(table), strings.Join(defs, ", "))
}

func (d *SQLiteDialect) Placeholder(index int) string {
	return "?"
}

// NormalizeType upper-cases the declared type. SQLite accepts any text as a
// type name, so nothing else can be assumed about it.
func (d *SQLiteDialect) NormalizeType(sqlType string) string {
	return strings.ToUpper(strings.TrimSpace(sqlType))
}

func (d *SQLiteDialect) QuoteIdent(name string) string {
	return DoubleQuote(name)
}
