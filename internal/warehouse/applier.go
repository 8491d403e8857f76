package warehouse

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lite2flake/internal/dialect"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	maxCreateAttempts = 3

	// wideVarchar is the warehouse's maximum VARCHAR length.
	wideVarchar = "VARCHAR(16777216)"
)

var ddlColumn = regexp.MustCompile(`(?m)^([ \t]*)("[^"]*"|[A-Za-z0-9_]+)[ \t]+(VARCHAR|NUMBER|FLOAT|TIMESTAMP_NTZ|TIMESTAMP|BOOLEAN|BINARY|INTEGER|DATE|CHAR)(\([^)]*\))?([ \t]*,?)[ \t]*$`)

// Execer runs a single statement.
type Execer interface {
	Exec(ctx context.Context, stmt string) error
}

// Applier creates tables, repairing the DDL text between attempts when the
// warehouse rejects it with a syntax error.
type Applier struct {
	exec  Execer
	pause time.Duration
	log   *zap.Logger
}

func NewApplier(exec Execer, pause time.Duration, log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{exec: exec, pause: pause, log: log}
}

// Apply executes ddl for qualifiedName with at most three attempts:
//
//	attempt 0: verbatim; a syntax error quotes the table name
//	attempt 1: also widens bare VARCHARs and quotes column names
//	attempt 2: any syntax error is final
//
// "Already exists" counts as success at any attempt; any other error is
// final immediately.
func (a *Applier) Apply(ctx context.Context, ddl, qualifiedName string) error {
	log := a.log.With(zap.String("table", qualifiedName), zap.String("phase", "creation"))

	stmt := ddl
	attempt := 0
	op := func() error {
		err := a.exec.Exec(ctx, stmt)
		switch {
		case err == nil:
			log.Info("Created table", zap.Int("attempt", attempt))
			return nil
		case IsAlreadyExists(err):
			log.Info("Table already exists")
			return nil
		case !IsSyntaxError(err):
			return backoff.Permanent(err)
		}

		switch attempt {
		case 0:
			stmt = QuoteTableName(stmt, qualifiedName)
			log.Info("Retrying with quoted table name", zap.Error(err))
		case 1:
			stmt = RepairColumns(stmt)
			log.Info("Retrying with widened VARCHAR types and quoted column names", zap.Error(err))
		default:
			return backoff.Permanent(err)
		}
		attempt++
		return err
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(a.pause)
	b = backoff.WithContext(backoff.WithMaxRetries(b, maxCreateAttempts-1), ctx)
	if err := backoff.Retry(op, b); err != nil {
		log.Error("Failed to create table", zap.Int("attempts", attempt+1), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrDDLCreateFailed, qualifiedName, err)
	}
	return nil
}

// QuoteTableName rewrites "TABLE <name>" so the whole qualified name is one
// quoted identifier. Quotes inside the name are dropped, so
// DB_TABLE_"ORDER" becomes "DB_TABLE_ORDER".
func QuoteTableName(ddl, qualifiedName string) string {
	if dialect.IsQuoted(qualifiedName) && !strings.Contains(qualifiedName[1:len(qualifiedName)-1], `"`) {
		return ddl
	}
	quoted := `"` + strings.ReplaceAll(qualifiedName, `"`, "") + `"`
	return strings.Replace(ddl, "TABLE "+qualifiedName, "TABLE "+quoted, 1)
}

// RepairColumns quotes unquoted column names and widens VARCHAR declarations
// that carry no length.
func RepairColumns(ddl string) string {
	return ddlColumn.ReplaceAllStringFunc(ddl, func(line string) string {
		m := ddlColumn.FindStringSubmatch(line)
		indent, name, typ, size, tail := m[1], m[2], m[3], m[4], m[5]
		if !dialect.IsQuoted(name) {
			name = `"` + name + `"`
		}
		if typ == "VARCHAR" && strings.TrimSpace(strings.Trim(size, "()")) == "" {
			typ, size = wideVarchar, ""
		}
		return indent + name + " " + typ + size + strings.TrimSpace(tail)
	})
}
