package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"lite2flake/internal/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockSession(t *testing.T) (*Session, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewSession(db, "analytics", "public", zap.NewNop())
	s.SetTempDir(t.TempDir())
	s.newID = func() string { return "batch-1" }
	return s, mock
}

func ns(v string) sql.NullString { return sql.NullString{String: v, Valid: true} }

func TestSessionCount(t *testing.T) {
	s, mock := newMockSession(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM FINANCIAL_TABLE_"ORDER"`)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(10))

	n, err := s.Count(context.Background(), `FINANCIAL_TABLE_"ORDER"`)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionListTables(t *testing.T) {
	s, mock := newMockSession(t)
	mock.ExpectQuery(regexp.QuoteMeta("SHOW TABLES IN SCHEMA ANALYTICS.PUBLIC")).
		WillReturnRows(sqlmock.NewRows([]string{"created_on", "name", "database_name", "schema_name"}).
			AddRow("2024-01-01", "FINANCIAL_TABLE_ACCOUNT", "ANALYTICS", "PUBLIC").
			AddRow("2024-01-01", "FINANCIAL_TABLE_ORDER", "ANALYTICS", "PUBLIC"))

	tables, err := s.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"FINANCIAL_TABLE_ACCOUNT", "FINANCIAL_TABLE_ORDER"}, tables)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTableStats(t *testing.T) {
	s, mock := newMockSession(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT TABLE_NAME, ROW_COUNT FROM ANALYTICS.INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ?")).
		WithArgs("PUBLIC").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "ROW_COUNT"}).
			AddRow("FINANCIAL_TABLE_ACCOUNT", 4500).
			AddRow("FINANCIAL_TABLE_EMPTY", nil))

	stats, err := s.TableStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TableStat{{"FINANCIAL_TABLE_ACCOUNT", 4500}, {"FINANCIAL_TABLE_EMPTY", 0}}, stats)
}

func TestSessionSample(t *testing.T) {
	s, mock := newMockSession(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM ANALYTICS.PUBLIC."FINANCIAL_TABLE_ORDER" LIMIT 5`)).
		WillReturnRows(sqlmock.NewRows([]string{"ORDER_ID", "K_SYMBOL"}).
			AddRow(int64(29401), "SIPO").
			AddRow(int64(29402), nil))

	frame, err := s.Sample(context.Background(), "FINANCIAL_TABLE_ORDER", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDER_ID", "K_SYMBOL"}, frame.Columns)
	assert.Equal(t, [][]sql.NullString{
		{ns("29401"), ns("SIPO")},
		{ns("29402"), {}},
	}, frame.Rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionBulkLoad(t *testing.T) {
	s, mock := newMockSession(t)
	frame := &schema.Frame{
		Columns: []string{"ID", "BALANCE", "k symbol"},
		Rows: [][]sql.NullString{
			{ns("1"), ns("10.5"), ns("")},
			{ns("2"), {}, ns("SIPO")},
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TEMPORARY STAGE IF NOT EXISTS LITE2FLAKE_STAGE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^PUT 'file://.+/lite2flake-.+\.csv' @LITE2FLAKE_STAGE/batch-1 AUTO_COMPRESS=TRUE OVERWRITE=TRUE$`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("TRUNCATE TABLE FINANCIAL_TABLE_ACCOUNT")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`COPY INTO FINANCIAL_TABLE_ACCOUNT (ID, BALANCE, "k symbol") FROM @LITE2FLAKE_STAGE/batch-1 FILE_FORMAT`)).
		WillReturnRows(sqlmock.NewRows([]string{"file", "status", "rows_parsed", "rows_loaded", "first_error"}).
			AddRow("batch-1/a.csv.gz", "LOADED", "2", "2", nil))

	n, err := s.BulkLoad(context.Background(), "FINANCIAL_TABLE_ACCOUNT", frame, LoadOptions{Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())

	// The staging file is cleaned up.
	left, err := filepath.Glob(filepath.Join(s.tmpDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSessionBulkLoadCreatesStageOnce(t *testing.T) {
	s, mock := newMockSession(t)
	frame := &schema.Frame{Columns: []string{"ID"}, Rows: [][]sql.NullString{{ns("1")}}}
	copyRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"file", "status", "rows_loaded"}).AddRow("f", "LOADED", "1")
	}

	mock.ExpectExec("CREATE TEMPORARY STAGE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("PUT ").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("COPY INTO A ").WillReturnRows(copyRows())
	mock.ExpectExec("PUT ").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("COPY INTO B ").WillReturnRows(copyRows())

	_, err := s.BulkLoad(context.Background(), "A", frame, LoadOptions{})
	require.NoError(t, err)
	_, err = s.BulkLoad(context.Background(), "B", frame, LoadOptions{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionBulkLoadFailures(t *testing.T) {
	frame := &schema.Frame{Columns: []string{"ID"}, Rows: [][]sql.NullString{{ns("x")}}}

	t.Run("copy error", func(t *testing.T) {
		s, mock := newMockSession(t)
		mock.ExpectExec("CREATE TEMPORARY STAGE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("PUT ").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("COPY INTO").WillReturnError(errors.New("Numeric value 'x' is not recognized"))

		_, err := s.BulkLoad(context.Background(), "A", frame, LoadOptions{})
		assert.True(t, errors.Is(err, ErrDataUploadFailed))
		assert.Contains(t, err.Error(), "Numeric value")
	})

	t.Run("load failed status", func(t *testing.T) {
		s, mock := newMockSession(t)
		mock.ExpectExec("CREATE TEMPORARY STAGE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("PUT ").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("COPY INTO").WillReturnRows(
			sqlmock.NewRows([]string{"file", "status", "rows_loaded", "first_error"}).
				AddRow("f", "LOAD_FAILED", "0", "Numeric value 'x' is not recognized"))

		_, err := s.BulkLoad(context.Background(), "A", frame, LoadOptions{})
		assert.True(t, errors.Is(err, ErrDataUploadFailed))
		assert.Contains(t, err.Error(), "LOAD_FAILED")
	})

	t.Run("auto create refused", func(t *testing.T) {
		s, _ := newMockSession(t)
		_, err := s.BulkLoad(context.Background(), "A", frame, LoadOptions{AutoCreate: true})
		assert.True(t, errors.Is(err, ErrDataUploadFailed))
	})
}

func TestWriteStagingFile(t *testing.T) {
	s, _ := newMockSession(t)
	path, err := s.writeStagingFile(&schema.Frame{
		Columns: []string{"A", "B", "C"},
		Rows: [][]sql.NullString{
			{ns("1"), {}, ns("")},
			{ns("2"), ns("with,comma"), ns(`say "hi"`)},
		},
	})
	require.NoError(t, err)
	defer os.Remove(path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1,\\N,\n2,\"with,comma\",\"say \"\"hi\"\"\"\n", string(b))
}
