package schema

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"lite2flake/internal/dialect"
)

var (
	createTableLine = regexp.MustCompile(`(?i)CREATE\s+OR\s+REPLACE\s+TABLE\s+([^(]+)\(?`)
	columnLine      = regexp.MustCompile(`^[ \t]*("[^"]+"|[\w\-/]+)[ \t]+([A-Za-z_]+(?:\(\d+\))?)[ \t]*,?[ \t]*$`)
)

// ParseQualifiedName recovers the table name from the first line of
// generated DDL.
func ParseQualifiedName(firstLine string) (string, bool) {
	m := createTableLine.FindStringSubmatch(firstLine)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}

// ParseDDL reads a generated CREATE statement back into a spec. Column types
// the loader does not care about collapse to VARCHAR.
func ParseDDL(ddl string) (*TargetTableSpec, error) {
	sc := bufio.NewScanner(strings.NewReader(ddl))
	if !sc.Scan() {
		return nil, fmt.Errorf("empty DDL")
	}
	name, ok := ParseQualifiedName(sc.Text())
	if !ok {
		return nil, fmt.Errorf("no CREATE OR REPLACE TABLE on first line: %q", sc.Text())
	}

	spec := &TargetTableSpec{QualifiedName: name}
	for sc.Scan() {
		m := columnLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		typ, err := dialect.ParseTargetType(m[2])
		if err != nil {
			typ = dialect.TypeVarchar
		}
		spec.Columns = append(spec.Columns, TargetColumnSpec{Name: m[1], Type: typ})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return spec, nil
}
