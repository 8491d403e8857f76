package extract

import (
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/spf13/cast"
)

const timestampLayout = "2006-01-02 15:04:05.999999999"

// formatValue renders a scanned source value as CSV text. Binary values are
// hex encoded, which is the warehouse's default BINARY input format.
func formatValue(v any, binary bool) (sql.NullString, error) {
	switch x := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case []byte:
		if binary {
			return sql.NullString{String: hex.EncodeToString(x), Valid: true}, nil
		}
		return sql.NullString{String: string(x), Valid: true}, nil
	case time.Time:
		return sql.NullString{String: x.Format(timestampLayout), Valid: true}, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}
