package dialect

// Dialect abstracts catalog and row access for an embedded source database.
type Dialect interface {
	// Driver name registered with database/sql.
	DriverName() string

	// Metadata Queries (Schema Introspection)
	GetTablesQuery() string
	GetColumnsQuery(table string) string

	// Query Generation
	SelectAllQuery(table string) string
	InsertQuery(table string, cols []string) string
	CreateTableQuery(table string, cols []ColumnDef) string
	Placeholder(index int) string

	// Helpers
	NormalizeType(sqlType string) string
	QuoteIdent(name string) string
}

// ColumnDef is a minimal column declaration used when writing source databases.
type ColumnDef struct {
	Name string
	Type string
	PK   bool
}
