package warehouse

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lite2flake/internal/dialect"
	"lite2flake/internal/schema"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Querier is satisfied by *sql.DB and *sql.Conn.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	stageName = "LITE2FLAKE_STAGE"

	// nullMarker is how SQL NULL is spelled in staged CSV files.
	nullMarker = `\N`
)

// LoadOptions mirror the bulk-load contract: tables are never auto-created and
// loads replace whatever the table holds.
type LoadOptions struct {
	AutoCreate bool
	Overwrite  bool
}

// TableStat is a row of the verification listing.
type TableStat struct {
	Name string
	Rows int64
}

// Session wraps the warehouse primitives the pipeline consumes. It is not
// safe for concurrent use.
type Session struct {
	db       Querier
	database string
	schema   string
	log      *zap.Logger

	tmpDir     string
	stageReady bool
	newID      func() string
}

func NewSession(db Querier, database, schemaName string, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		db:       db,
		database: database,
		schema:   schemaName,
		log:      log,
		newID:    uuid.NewString,
	}
}

// SetTempDir changes where staging files are written before upload.
func (s *Session) SetTempDir(dir string) {
	s.tmpDir = dir
}

func (s *Session) Exec(ctx context.Context, stmt string) error {
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// Count returns the number of rows in a table.
func (s *Session) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	return n, err
}

// Commit ends the current transaction, if any.
func (s *Session) Commit(ctx context.Context) error {
	return s.Exec(ctx, "COMMIT")
}

// ListTables returns the names of the tables in the configured schema.
func (s *Session) ListTables(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SHOW TABLES IN SCHEMA %s.%s", dialect.CanonicalName(s.database), dialect.CanonicalName(s.schema))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	nameIdx := 1
	for i, c := range cols {
		if strings.EqualFold(c, "name") {
			nameIdx = i
			break
		}
	}
	if nameIdx >= len(cols) {
		return nil, fmt.Errorf("unexpected SHOW TABLES result with %d columns", len(cols))
	}

	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var tables []string
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan table listing: %w", err)
		}
		tables = append(tables, vals[nameIdx].String)
	}
	return tables, rows.Err()
}

// TableStats lists tables and their row counts from the information schema.
func (s *Session) TableStats(ctx context.Context) ([]TableStat, error) {
	q := fmt.Sprintf(`SELECT TABLE_NAME, ROW_COUNT FROM %s.INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME`,
		dialect.CanonicalName(s.database))
	rows, err := s.db.QueryContext(ctx, q, strings.ToUpper(s.schema))
	if err != nil {
		return nil, fmt.Errorf("failed to query table statistics: %w", err)
	}
	defer rows.Close()

	var stats []TableStat
	for rows.Next() {
		var (
			name  string
			count sql.NullInt64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		stats = append(stats, TableStat{Name: name, Rows: count.Int64})
	}
	return stats, rows.Err()
}

// Sample returns up to limit rows of a table listed by TableStats. The name
// is quoted as given, since the information schema reports exact names.
func (s *Session) Sample(ctx context.Context, table string, limit int) (*schema.Frame, error) {
	q := fmt.Sprintf(`SELECT * FROM %s.%s."%s" LIMIT %d`,
		dialect.CanonicalName(s.database), dialect.CanonicalName(s.schema),
		strings.ReplaceAll(table, `"`, `""`), limit)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	frame := &schema.Frame{Columns: cols}
	for rows.Next() {
		row := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan sample of %s: %w", table, err)
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, rows.Err()
}

func (s *Session) ensureStage(ctx context.Context) error {
	if s.stageReady {
		return nil
	}
	if err := s.Exec(ctx, "CREATE TEMPORARY STAGE IF NOT EXISTS "+stageName); err != nil {
		return fmt.Errorf("failed to create stage: %w", err)
	}
	s.stageReady = true
	return nil
}

// BulkLoad stages the frame as CSV and copies it into an existing table.
// It returns the number of rows the warehouse reports as loaded.
func (s *Session) BulkLoad(ctx context.Context, table string, frame *schema.Frame, opts LoadOptions) (int64, error) {
	if opts.AutoCreate {
		return 0, fmt.Errorf("%w: %s: creating tables during load is not supported", ErrDataUploadFailed, table)
	}
	if frame.Len() == 0 {
		return 0, nil
	}
	if err := s.ensureStage(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDataUploadFailed, err)
	}

	path, err := s.writeStagingFile(frame)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDataUploadFailed, table, err)
	}
	defer os.Remove(path)

	location := fmt.Sprintf("@%s/%s", stageName, s.newID())
	put := fmt.Sprintf("PUT 'file://%s' %s AUTO_COMPRESS=TRUE OVERWRITE=TRUE", filepath.ToSlash(path), location)
	if err := s.Exec(ctx, put); err != nil {
		return 0, fmt.Errorf("%w: %s: staging: %v", ErrDataUploadFailed, table, err)
	}

	if opts.Overwrite {
		if err := s.Exec(ctx, "TRUNCATE TABLE "+table); err != nil {
			return 0, fmt.Errorf("%w: %s: truncate: %v", ErrDataUploadFailed, table, err)
		}
	}

	cols := make([]string, len(frame.Columns))
	for i, c := range frame.Columns {
		cols[i] = dialect.QuoteIfNeeded(c)
	}
	copyStmt := fmt.Sprintf(`COPY INTO %s (%s) FROM %s FILE_FORMAT = (TYPE = CSV FIELD_OPTIONALLY_ENCLOSED_BY = '"' NULL_IF = ('\\N') EMPTY_FIELD_AS_NULL = FALSE) PURGE = TRUE ON_ERROR = ABORT_STATEMENT`,
		table, strings.Join(cols, ", "), location)

	loaded, err := s.copyInto(ctx, copyStmt)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDataUploadFailed, table, err)
	}
	if loaded != int64(frame.Len()) {
		s.log.Warn("Loaded row count differs from source",
			zap.String("table", table), zap.Int64("loaded", loaded), zap.Int("source", frame.Len()))
	}
	return loaded, nil
}

// copyInto runs COPY INTO and sums rows_loaded over the per-file results.
func (s *Session) copyInto(ctx context.Context, stmt string) (int64, error) {
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	loadedIdx, statusIdx, firstErrIdx := -1, -1, -1
	for i, c := range cols {
		switch strings.ToLower(c) {
		case "rows_loaded":
			loadedIdx = i
		case "status":
			statusIdx = i
		case "first_error":
			firstErrIdx = i
		}
	}

	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var total int64
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return 0, err
		}
		if statusIdx >= 0 && strings.Contains(strings.ToUpper(vals[statusIdx].String), "FAILED") {
			msg := vals[statusIdx].String
			if firstErrIdx >= 0 && vals[firstErrIdx].Valid {
				msg += ": " + vals[firstErrIdx].String
			}
			return 0, fmt.Errorf("copy reported %s", msg)
		}
		if loadedIdx >= 0 && vals[loadedIdx].Valid {
			n, err := strconv.ParseInt(vals[loadedIdx].String, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("unexpected rows_loaded %q", vals[loadedIdx].String)
			}
			total += n
		}
	}
	return total, rows.Err()
}

func (s *Session) writeStagingFile(frame *schema.Frame) (string, error) {
	f, err := os.CreateTemp(s.tmpDir, "lite2flake-*.csv")
	if err != nil {
		return "", err
	}

	w := csv.NewWriter(f)
	record := make([]string, len(frame.Columns))
	for _, row := range frame.Rows {
		for i := range record {
			record[i] = nullMarker
			if i < len(row) && row[i].Valid {
				record[i] = row[i].String
			}
		}
		if err := w.Write(record); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
