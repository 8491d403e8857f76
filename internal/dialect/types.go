package dialect

import (
	"fmt"
	"strings"
)

// TargetType is a warehouse column type category.
type TargetType string

const (
	TypeNumber    TargetType = "NUMBER"
	TypeFloat     TargetType = "FLOAT"
	TypeVarchar   TargetType = "VARCHAR"
	TypeTimestamp TargetType = "TIMESTAMP"
	TypeBoolean   TargetType = "BOOLEAN"
	TypeBinary    TargetType = "BINARY"
)

var (
	floatTypes = map[string]bool{
		"REAL": true, "DOUBLE": true, "FLOAT": true, "NUMERIC": true, "DECIMAL": true,
	}
	textTypes = map[string]bool{
		"CHAR": true, "VARCHAR": true, "TEXT": true, "NVARCHAR": true, "CLOB": true,
	}
)

// SQL returns the type as written in warehouse DDL. Timestamps are
// timezone-naive.
func (t TargetType) SQL() string {
	if t == TypeTimestamp {
		return "TIMESTAMP_NTZ"
	}
	return string(t)
}

// NullOnEmpty reports whether an empty text value must load as NULL.
func (t TargetType) NullOnEmpty() bool {
	switch t {
	case TypeNumber, TypeFloat, TypeTimestamp:
		return true
	}
	return false
}

// MapType maps a declared source column type to a target type. It never
// fails: unrecognized types resolve to VARCHAR with ok set to false so the
// caller can log the fallback.
func MapType(sourceType string) (t TargetType, ok bool) {
	st := strings.ToUpper(strings.TrimSpace(sourceType))
	switch {
	case strings.Contains(st, "INT"):
		return TypeNumber, true
	case floatTypes[st]:
		return TypeFloat, true
	case textTypes[st]:
		return TypeVarchar, true
	case strings.Contains(st, "DATE"), strings.Contains(st, "TIME"):
		return TypeTimestamp, true
	case strings.Contains(st, "BOOL"):
		return TypeBoolean, true
	case strings.Contains(st, "BLOB"), strings.Contains(st, "BINARY"):
		return TypeBinary, true
	}
	return TypeVarchar, false
}

// ParseTargetType reads a warehouse type as it appears in DDL or in
// configuration, e.g. "NUMBER", "VARCHAR(16777216)" or "TIMESTAMP_NTZ".
func ParseTargetType(s string) (TargetType, error) {
	st := strings.ToUpper(strings.TrimSpace(s))
	if i := strings.IndexByte(st, '('); i >= 0 {
		st = strings.TrimSpace(st[:i])
	}
	switch {
	case st == "NUMBER", st == "DECIMAL", st == "NUMERIC", strings.Contains(st, "INT"):
		return TypeNumber, nil
	case st == "FLOAT", st == "REAL", strings.HasPrefix(st, "DOUBLE"), st == "FLOAT4", st == "FLOAT8":
		return TypeFloat, nil
	case strings.HasPrefix(st, "TIMESTAMP"), st == "DATE", st == "DATETIME", st == "TIME":
		return TypeTimestamp, nil
	case st == "VARCHAR", st == "CHAR", st == "CHARACTER", st == "TEXT", st == "STRING", st == "NVARCHAR":
		return TypeVarchar, nil
	case st == "BOOLEAN", st == "BOOL":
		return TypeBoolean, nil
	case st == "BINARY", st == "VARBINARY":
		return TypeBinary, nil
	}
	return "", fmt.Errorf("unknown warehouse type %q", s)
}
