package schema

import (
	"database/sql"
	"strings"

	"lite2flake/internal/dialect"
)

// SourceTable is a table as read from the source database catalog.
type SourceTable struct {
	Database string
	Name     string
	Columns  []*SourceColumn
}

type SourceColumn struct {
	Name         string
	DeclaredType string
	Nullable     bool
	IsPK         bool
}

type TargetColumnSpec struct {
	Name string             `json:"name"`
	Type dialect.TargetType `json:"type"`
}

// TargetTableSpec is the warehouse definition derived for one source table.
// It is persisted next to the generated DDL so the loader never has to
// recompute names.
type TargetTableSpec struct {
	Database      string             `json:"database"`
	Table         string             `json:"table"`
	QualifiedName string             `json:"qualified_name"`
	Columns       []TargetColumnSpec `json:"columns"`

	// Load column names are lower-cased for tables whose override declares it.
	LowercaseLoadColumns bool `json:"lowercase_load_columns,omitempty"`
}

// ColumnType looks a column up by name, ignoring case and quoting.
func (s *TargetTableSpec) ColumnType(name string) (dialect.TargetType, bool) {
	want := strings.ToUpper(dialect.Unquote(name))
	for _, c := range s.Columns {
		if strings.ToUpper(dialect.Unquote(c.Name)) == want {
			return c.Type, true
		}
	}
	return "", false
}

// Frame is an extracted row set. Every value is text; an invalid NullString
// is SQL NULL.
type Frame struct {
	Columns []string
	Rows    [][]sql.NullString
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Phase names the pipeline step a failure belongs to.
type Phase string

const (
	PhaseCreation     Phase = "creation"
	PhaseUpload       Phase = "data upload"
	PhaseTableMissing Phase = "upload - table missing"
)

// 리포트용 구조체
type LoadRecord struct {
	Database      string
	Table         string
	QualifiedName string
	Created       bool
	Loaded        bool
	Skipped       bool
	RowCount      int64
	Phase         Phase
	Err           error
}

func (r LoadRecord) Failed() bool {
	return r.Err != nil
}

// Failure renders the record the way the run summary lists failed tables.
func (r LoadRecord) Failure() string {
	name := r.QualifiedName
	if name == "" {
		name = r.Database + "." + r.Table
	}
	return name + " (" + string(r.Phase) + ")"
}

type DatabaseStats struct {
	Database string
	Created  int
	Loaded   int
	Skipped  int
	Failed   int
	Rows     int64
}

func (s *DatabaseStats) Add(r LoadRecord) {
	if r.Created {
		s.Created++
	}
	if r.Skipped {
		s.Skipped++
	}
	if r.Failed() {
		s.Failed++
		return
	}
	if r.Loaded {
		s.Loaded++
		s.Rows += r.RowCount
	}
}

// RunSummary aggregates a whole upload run.
type RunSummary struct {
	Databases []DatabaseStats
	Created   int
	Loaded    int
	Skipped   int
	Failed    int
	Rows      int64
	Failures  []string
}

func (s *RunSummary) AddDatabase(d DatabaseStats, records []LoadRecord) {
	s.Databases = append(s.Databases, d)
	s.Created += d.Created
	s.Loaded += d.Loaded
	s.Skipped += d.Skipped
	s.Failed += d.Failed
	s.Rows += d.Rows
	for _, r := range records {
		if r.Failed() {
			s.Failures = append(s.Failures, r.Failure())
		}
	}
}
