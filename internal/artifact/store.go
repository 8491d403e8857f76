package artifact

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lite2flake/internal/schema"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	csvExt  = ".csv"
	sqlExt  = ".sql"
	specExt = ".json"
)

// Store lays out exported artifacts on disk:
//
//	<CSVDir>/<database>/<table>.csv
//	<SQLDir>/<database>_<table>.sql
//	<SQLDir>/<database>_<table>.json
type Store struct {
	CSVDir string
	SQLDir string
}

func New(csvDir, sqlDir string) *Store {
	return &Store{CSVDir: csvDir, SQLDir: sqlDir}
}

func (s *Store) CSVPath(database, table string) string {
	return filepath.Join(s.CSVDir, database, table+csvExt)
}

func (s *Store) DDLPath(database, table string) string {
	return filepath.Join(s.SQLDir, database+"_"+table+sqlExt)
}

func (s *Store) SpecPath(database, table string) string {
	return filepath.Join(s.SQLDir, database+"_"+table+specExt)
}

// Databases lists the database directories under the CSV root, sorted.
// Hidden directories are ignored.
func (s *Store) Databases() ([]string, error) {
	entries, err := os.ReadDir(s.CSVDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv directory: %w", err)
	}
	var dbs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dbs = append(dbs, e.Name())
		}
	}
	sort.Strings(dbs)
	return dbs, nil
}

// Tables returns every table of a database that has a DDL or a CSV artifact.
func (s *Store) Tables(database string) ([]string, error) {
	seen := make(map[string]struct{})

	csvFiles, err := filepath.Glob(filepath.Join(s.CSVDir, database, "*"+csvExt))
	if err != nil {
		return nil, err
	}
	for _, f := range csvFiles {
		seen[strings.TrimSuffix(filepath.Base(f), csvExt)] = struct{}{}
	}

	ddls, err := s.ddlTables(database)
	if err != nil {
		return nil, err
	}
	for _, t := range ddls {
		seen[t] = struct{}{}
	}

	tables := make([]string, 0, len(seen))
	for t := range seen {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables, nil
}

// ddlTables finds <database>_<table>.sql files. A file is credited to the
// database only when no longer known database name is a better prefix, so
// "shop" does not claim "shop_eu_orders.sql" if "shop_eu" exists.
func (s *Store) ddlTables(database string) ([]string, error) {
	entries, err := os.ReadDir(s.SQLDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sql directory: %w", err)
	}
	dbs, err := s.Databases()
	if err != nil {
		return nil, err
	}

	prefix := database + "_"
	var tables []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, sqlExt) || !strings.HasPrefix(name, prefix) {
			continue
		}
		if owner := longestPrefix(name, dbs); owner != "" && owner != database {
			continue
		}
		tables = append(tables, strings.TrimSuffix(strings.TrimPrefix(name, prefix), sqlExt))
	}
	return tables, nil
}

func longestPrefix(file string, dbs []string) string {
	best := ""
	for _, db := range dbs {
		if strings.HasPrefix(file, db+"_") && len(db) > len(best) {
			best = db
		}
	}
	return best
}

func (s *Store) HasCSV(database, table string) bool {
	_, err := os.Stat(s.CSVPath(database, table))
	return err == nil
}

// RemoveCSV deletes the CSV of a table. A missing file is not an error.
func (s *Store) RemoveCSV(database, table string) error {
	err := os.Remove(s.CSVPath(database, table))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// WriteFrame writes a header row followed by the frame rows. NULL is written
// as an empty field.
func (s *Store) WriteFrame(database, table string, frame *schema.Frame) (err error) {
	path := s.CSVPath(database, table)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(frame.Columns); err != nil {
		return err
	}
	record := make([]string, len(frame.Columns))
	for _, row := range frame.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i].Valid {
				record[i] = row[i].String
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadFrame reads a CSV artifact. All values are read as text.
func (s *Store) ReadFrame(database, table string) (*schema.Frame, error) {
	f, err := os.Open(s.CSVPath(database, table))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return &schema.Frame{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	r.FieldsPerRecord = len(header)

	frame := &schema.Frame{Columns: header}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		row := make([]sql.NullString, len(record))
		for i, v := range record {
			row[i] = sql.NullString{String: v, Valid: true}
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}

func (s *Store) WriteDDL(database, table, ddl string) error {
	if err := os.MkdirAll(s.SQLDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.DDLPath(database, table), []byte(ddl), 0o644)
}

func (s *Store) ReadDDL(database, table string) (string, error) {
	b, err := os.ReadFile(s.DDLPath(database, table))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Store) WriteSpec(spec *schema.TargetTableSpec) error {
	if err := os.MkdirAll(s.SQLDir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.SpecPath(spec.Database, spec.Table), b, 0o644)
}

// ReadSpec loads the structured spec. A missing file returns os.ErrNotExist.
func (s *Store) ReadSpec(database, table string) (*schema.TargetTableSpec, error) {
	b, err := os.ReadFile(s.SpecPath(database, table))
	if err != nil {
		return nil, err
	}
	var spec schema.TargetTableSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("invalid spec %s: %w", s.SpecPath(database, table), err)
	}
	return &spec, nil
}
