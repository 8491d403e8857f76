package schema

import (
	"fmt"
	"strings"

	"lite2flake/internal/dialect"

	"go.uber.org/zap"
)

// TableReader is the part of a source catalog the translator needs.
type TableReader interface {
	Table(name string) (*SourceTable, error)
}

// Translator derives warehouse table specs from source tables.
type Translator struct {
	overrides *Registry
	log       *zap.Logger
}

func NewTranslator(overrides *Registry, log *zap.Logger) *Translator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Translator{overrides: overrides, log: log}
}

// Translate maps every source column to a target column, keeping order.
// A registered override wins over whatever the catalog says.
func (t *Translator) Translate(src *SourceTable) (*TargetTableSpec, error) {
	if spec, ok := t.overrides.Lookup(src.Database, src.Name); ok {
		t.log.Info("Using manual schema definition",
			zap.String("database", src.Database), zap.String("table", src.Name))
		return spec, nil
	}
	if len(src.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s.%s has no columns", ErrSchemaUnavailable, src.Database, src.Name)
	}

	spec := &TargetTableSpec{
		Database:      src.Database,
		Table:         src.Name,
		QualifiedName: dialect.QualifiedName(src.Database, src.Name),
		Columns:       make([]TargetColumnSpec, 0, len(src.Columns)),
	}
	for _, c := range src.Columns {
		typ, ok := dialect.MapType(c.DeclaredType)
		if !ok {
			t.log.Warn("Unknown source type, defaulting to VARCHAR",
				zap.String("database", src.Database),
				zap.String("table", src.Name),
				zap.String("column", c.Name),
				zap.String("type", c.DeclaredType))
		}
		spec.Columns = append(spec.Columns, TargetColumnSpec{
			Name: dialect.CanonicalName(strings.ToUpper(c.Name)),
			Type: typ,
		})
	}
	return spec, nil
}

// TranslateFrom introspects a table and translates it. Overrides skip
// introspection entirely.
func (t *Translator) TranslateFrom(r TableReader, database, table string) (*TargetTableSpec, error) {
	if spec, ok := t.overrides.Lookup(database, table); ok {
		t.log.Info("Using manual schema definition",
			zap.String("database", database), zap.String("table", table))
		return spec, nil
	}
	src, err := r.Table(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
	}
	src.Database = database
	return t.Translate(src)
}

// RenderDDL writes the CREATE statement for a spec. The qualified name is on
// the first line; artifact readers depend on that.
func RenderDDL(spec *TargetTableSpec) string {
	var b strings.Builder
	b.WriteString("CREATE OR REPLACE TABLE ")
	b.WriteString(spec.QualifiedName)
	b.WriteString(" (\n")
	for i, c := range spec.Columns {
		b.WriteString("    ")
		b.WriteString(c.Name)
		b.WriteString(" ")
		b.WriteString(c.Type.SQL())
		if i < len(spec.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}
