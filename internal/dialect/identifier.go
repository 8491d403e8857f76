package dialect

import (
	"regexp"
	"strings"
)

// reservedWords are identifiers the warehouse rejects unquoted. Kept as the
// only list so DDL generation and load-time naming agree.
var reservedWords = map[string]struct{}{
	"ALTER": {}, "AND": {}, "CASE": {}, "COMMIT": {}, "CREATE": {}, "DEFAULT": {},
	"DELETE": {}, "DROP": {}, "ELSE": {}, "END": {}, "FALSE": {}, "FOREIGN": {},
	"FROM": {}, "GRANT": {}, "GROUP": {}, "HAVING": {}, "INDEX": {}, "INSERT": {},
	"JOIN": {}, "NATURAL": {}, "NOT": {}, "NULL": {}, "OR": {}, "ORDER": {},
	"PRIMARY": {}, "REFERENCES": {}, "REVOKE": {}, "ROLLBACK": {}, "SELECT": {},
	"SESSION": {}, "TABLE": {}, "THEN": {}, "TRANSACTION": {}, "TRUE": {},
	"UPDATE": {}, "USING": {}, "WHEN": {}, "WHERE": {}, "WITH": {},
}

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsReserved reports whether name is a reserved word, ignoring case.
func IsReserved(name string) bool {
	_, ok := reservedWords[strings.ToUpper(name)]
	return ok
}

// NeedsQuoting reports whether name must be double-quoted in warehouse SQL.
// Lower or mixed case alone does not require quoting; such names are
// upper-cased by CanonicalName instead.
func NeedsQuoting(name string) bool {
	if IsQuoted(name) {
		return false
	}
	if strings.ContainsAny(name, " -") {
		return true
	}
	if IsReserved(name) {
		return true
	}
	return !plainIdent.MatchString(name)
}

// CanonicalName returns the warehouse spelling of a database, table or column
// name: upper-cased, and quoted when NeedsQuoting says so.
func CanonicalName(name string) string {
	if IsQuoted(name) {
		return name
	}
	upper := strings.ToUpper(name)
	if NeedsQuoting(upper) {
		return DoubleQuote(upper)
	}
	return upper
}

// QuoteIfNeeded quotes name without changing its case.
func QuoteIfNeeded(name string) string {
	if NeedsQuoting(name) {
		return DoubleQuote(name)
	}
	return name
}

// QualifiedName composes <DATABASE>_TABLE_<TABLE>. Both the DDL writer and the
// loader resolve table names through here.
func QualifiedName(database, table string) string {
	return strings.ToUpper(database) + "_TABLE_" + CanonicalName(table)
}
