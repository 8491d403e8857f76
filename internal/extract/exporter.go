package extract

import (
	"database/sql"
	"fmt"

	"lite2flake/internal/artifact"
	"lite2flake/internal/dialect"
	"lite2flake/internal/schema"

	"go.uber.org/zap"
)

// Result summarises the export of one database.
type Result struct {
	Database string
	Tables   int
	CSV      int
	SQL      int
	Failures []string
}

// Exporter writes row, DDL and spec artifacts for source databases.
type Exporter struct {
	store      *artifact.Store
	translator *schema.Translator
	d          dialect.Dialect
	log        *zap.Logger

	// OnTable is called after each table, successful or not.
	OnTable func(database, table string)
}

func NewExporter(store *artifact.Store, translator *schema.Translator, d dialect.Dialect, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{store: store, translator: translator, d: d, log: log}
}

// CountTables opens a source only to count its tables.
func (e *Exporter) CountTables(src Source) (int, error) {
	db, err := sql.Open(e.d.DriverName(), src.Path)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	tables, err := schema.NewCatalog(db, e.d, src.Database).Tables()
	return len(tables), err
}

// Export processes every table of src. A failing table is recorded and the
// rest continue; only an unreadable database is returned as an error.
func (e *Exporter) Export(src Source) (*Result, error) {
	log := e.log.With(zap.String("database", src.Database))

	db, err := sql.Open(e.d.DriverName(), src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src.Path, err)
	}
	defer db.Close()

	catalog := schema.NewCatalog(db, e.d, src.Database)
	tables, err := catalog.Tables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", src.Path, err)
	}
	log.Info("Exporting database", zap.String("path", src.Path), zap.Int("tables", len(tables)))

	res := &Result{Database: src.Database, Tables: len(tables)}
	for _, table := range tables {
		e.exportTable(log, db, catalog, res, table)
		if e.OnTable != nil {
			e.OnTable(src.Database, table)
		}
	}

	log.Info("Exported database",
		zap.Int("csv", res.CSV), zap.Int("sql", res.SQL), zap.Strings("failures", res.Failures))
	return res, nil
}

// exportTable writes the schema artifacts first. A table without a schema
// gets no CSV either, so upload never sees rows it cannot create a table for.
func (e *Exporter) exportTable(log *zap.Logger, db *sql.DB, catalog *schema.Catalog, res *Result, table string) {
	log = log.With(zap.String("table", table))
	if err := e.exportSchema(catalog, table); err != nil {
		log.Error("Failed to export schema, skipping table", zap.Error(err))
		res.Failures = append(res.Failures, table+" (sql)")
		if err := e.store.RemoveCSV(catalog.Database(), table); err != nil {
			log.Warn("Failed to remove stale CSV", zap.Error(err))
		}
		return
	}
	res.SQL++

	if err := e.exportRows(db, catalog.Database(), table); err != nil {
		log.Error("Failed to export rows", zap.Error(err))
		res.Failures = append(res.Failures, table+" (csv)")
		return
	}
	res.CSV++
}

func (e *Exporter) exportRows(db *sql.DB, database, table string) error {
	rows, err := db.Query(e.d.SelectAllQuery(table))
	if err != nil {
		return err
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return err
	}
	frame := &schema.Frame{Columns: make([]string, len(types))}
	binary := make([]bool, len(types))
	for i, ct := range types {
		frame.Columns[i] = ct.Name()
		typ, _ := dialect.MapType(e.d.NormalizeType(ct.DatabaseTypeName()))
		binary[i] = typ == dialect.TypeBinary
	}

	vals := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		row := make([]sql.NullString, len(vals))
		for i, v := range vals {
			if row[i], err = formatValue(v, binary[i]); err != nil {
				return fmt.Errorf("column %s: %w", frame.Columns[i], err)
			}
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return e.store.WriteFrame(database, table, frame)
}

func (e *Exporter) exportSchema(catalog *schema.Catalog, table string) error {
	database := catalog.Database()
	spec, err := e.translator.TranslateFrom(catalog, database, table)
	if err != nil {
		return err
	}
	if err := e.store.WriteDDL(database, table, schema.RenderDDL(spec)); err != nil {
		return err
	}
	return e.store.WriteSpec(spec)
}
