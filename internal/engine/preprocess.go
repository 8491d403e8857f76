package engine

import (
	"database/sql"
	"strings"

	"lite2flake/internal/schema"
)

// Prepare returns a copy of frame ready for loading into spec's table:
// column names are upper-cased, empty strings in NUMBER, FLOAT and TIMESTAMP
// columns become NULL, and for specs that ask for it the final names are
// lower-cased. Columns unknown to spec are passed through unchanged.
func Prepare(frame *schema.Frame, spec *schema.TargetTableSpec) *schema.Frame {
	out := &schema.Frame{
		Columns: make([]string, len(frame.Columns)),
		Rows:    make([][]sql.NullString, len(frame.Rows)),
	}

	nullOnEmpty := make([]bool, len(frame.Columns))
	for i, c := range frame.Columns {
		name := strings.ToUpper(c)
		if spec != nil {
			if t, ok := spec.ColumnType(name); ok {
				nullOnEmpty[i] = t.NullOnEmpty()
			}
			if spec.LowercaseLoadColumns {
				name = strings.ToLower(name)
			}
		}
		out.Columns[i] = name
	}

	for r, row := range frame.Rows {
		cp := make([]sql.NullString, len(row))
		copy(cp, row)
		for i := range cp {
			if i < len(nullOnEmpty) && nullOnEmpty[i] && cp[i].Valid && cp[i].String == "" {
				cp[i] = sql.NullString{}
			}
		}
		out.Rows[r] = cp
	}
	return out
}
