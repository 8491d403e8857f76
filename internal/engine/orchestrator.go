package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"lite2flake/internal/artifact"
	"lite2flake/internal/dialect"
	"lite2flake/internal/schema"
	"lite2flake/internal/warehouse"

	"go.uber.org/zap"
)

// Warehouse is the set of warehouse primitives the orchestrator consumes.
type Warehouse interface {
	ListTables(ctx context.Context) ([]string, error)
	BulkLoad(ctx context.Context, table string, frame *schema.Frame, opts warehouse.LoadOptions) (int64, error)
	Commit(ctx context.Context) error
}

type DDLApplier interface {
	Apply(ctx context.Context, ddl, qualifiedName string) error
}

type LoadGate interface {
	Check(ctx context.Context, qualifiedName string) (warehouse.GateResult, error)
}

// Orchestrator creates and loads every table found in an artifact store.
type Orchestrator struct {
	store     *artifact.Store
	wh        Warehouse
	applier   DDLApplier
	gate      LoadGate
	overrides *schema.Registry
	log       *zap.Logger

	// known holds normalized names of tables that exist in the target schema.
	known map[string]struct{}

	// OnTable is called after each table has been processed.
	OnTable func(database, table string)
}

func NewOrchestrator(store *artifact.Store, wh Warehouse, applier DDLApplier, gate LoadGate, overrides *schema.Registry, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		store:     store,
		wh:        wh,
		applier:   applier,
		gate:      gate,
		overrides: overrides,
		log:       log,
		known:     make(map[string]struct{}),
	}
}

// normalizeName lets "DB_TABLE_ORDER", DB_TABLE_"ORDER" and
// "DB_TABLE_ORDER" compare equal.
func normalizeName(name string) string {
	return strings.ReplaceAll(name, `"`, "")
}

// Databases lists the databases a run will process.
func (o *Orchestrator) Databases() ([]string, error) {
	if _, err := os.Stat(o.store.SQLDir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSourceArtifacts, err)
	}
	dbs, err := o.store.Databases()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSourceArtifacts, err)
	}
	if len(dbs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSourceArtifacts, o.store.CSVDir)
	}
	return dbs, nil
}

// Run processes every database in name order. Per-table failures are
// recorded in the summary; only pre-flight failures are returned.
func (o *Orchestrator) Run(ctx context.Context) (*schema.RunSummary, error) {
	dbs, err := o.Databases()
	if err != nil {
		return nil, err
	}

	existing, err := o.wh.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range existing {
		o.known[normalizeName(t)] = struct{}{}
	}
	o.log.Info("Found existing tables in schema", zap.Int("count", len(existing)))

	summary := &schema.RunSummary{}
	for _, db := range dbs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		stats, records := o.UploadDatabase(ctx, db)
		summary.AddDatabase(stats, records)
	}

	o.log.Info("Upload complete",
		zap.Int("created", summary.Created),
		zap.Int("loaded", summary.Loaded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	if len(summary.Failures) > 0 {
		o.log.Warn("Failed operations", zap.Strings("failures", summary.Failures))
	}
	return summary, nil
}

// UploadDatabase creates and loads the tables of one database and commits
// once at the end.
func (o *Orchestrator) UploadDatabase(ctx context.Context, database string) (schema.DatabaseStats, []schema.LoadRecord) {
	log := o.log.With(zap.String("database", database))
	stats := schema.DatabaseStats{Database: database}

	tables, err := o.store.Tables(database)
	if err != nil {
		log.Error("Failed to list table artifacts", zap.Error(err))
		return stats, nil
	}
	if len(tables) == 0 {
		log.Warn("No table artifacts found")
	}

	var records []schema.LoadRecord
	for _, table := range tables {
		rec := o.uploadTable(ctx, log.With(zap.String("table", table)), database, table)
		stats.Add(rec)
		records = append(records, rec)
		if o.OnTable != nil {
			o.OnTable(database, table)
		}
	}

	if err := o.wh.Commit(ctx); err != nil {
		log.Error("Commit failed", zap.Error(err))
	}
	log.Info("Processed database",
		zap.Int("created", stats.Created),
		zap.Int("loaded", stats.Loaded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, records
}

func (o *Orchestrator) uploadTable(ctx context.Context, log *zap.Logger, database, table string) schema.LoadRecord {
	rec := schema.LoadRecord{Database: database, Table: table}

	spec, ddl := o.ResolveSpec(database, table)
	rec.QualifiedName = spec.QualifiedName

	key := normalizeName(spec.QualifiedName)
	if _, ok := o.known[key]; ok {
		log.Info("Table already exists, skipping creation", zap.String("target", spec.QualifiedName))
	} else if ddl == "" {
		log.Warn("No schema for table, skipping it entirely",
			zap.String("target", spec.QualifiedName), zap.Error(schema.ErrSchemaUnavailable))
		rec.Skipped = true
		return rec
	} else {
		if err := o.applier.Apply(ctx, ddl, spec.QualifiedName); err != nil {
			rec.Phase, rec.Err = schema.PhaseCreation, err
			return rec
		}
		rec.Created = true
		o.known[key] = struct{}{}
	}

	if !o.store.HasCSV(database, table) {
		log.Warn("No CSV for table, nothing to load")
		return rec
	}

	gate, err := o.gate.Check(ctx, spec.QualifiedName)
	if err != nil {
		rec.Phase, rec.Err = schema.PhaseUpload, err
		log.Error("Failed to check table before load", zap.Error(err))
		return rec
	}
	switch gate.State {
	case warehouse.GateExistsWithData:
		log.Info("Table already has rows, skipping data upload", zap.Int64("rows", gate.RowCount))
		rec.Skipped = true
		return rec
	case warehouse.GateMissing:
		log.Warn("Table does not exist, skipping data upload")
		rec.Phase = schema.PhaseTableMissing
		rec.Err = fmt.Errorf("%w: %s", ErrTableMissingAtLoad, spec.QualifiedName)
		return rec
	}

	frame, err := o.store.ReadFrame(database, table)
	if err != nil {
		rec.Phase, rec.Err = schema.PhaseUpload, fmt.Errorf("%w: %v", warehouse.ErrDataUploadFailed, err)
		log.Error("Failed to read CSV", zap.Error(err))
		return rec
	}
	prepared := Prepare(frame, spec)
	if prepared.Len() == 0 {
		log.Warn("CSV is empty after preprocessing, skipping")
		return rec
	}

	n, err := o.wh.BulkLoad(ctx, spec.QualifiedName, prepared, warehouse.LoadOptions{AutoCreate: false, Overwrite: true})
	if err != nil {
		rec.Phase, rec.Err = schema.PhaseUpload, err
		log.Error("Failed to load data", zap.Error(err))
		return rec
	}
	log.Info("Loaded rows", zap.Int64("rows", n))
	rec.Loaded, rec.RowCount = true, n
	return rec
}

// ResolveSpec finds the target definition of a table and the DDL to create
// it with. The structured spec is preferred; otherwise the DDL artifact is
// parsed; otherwise the name is recomputed and ddl is empty.
func (o *Orchestrator) ResolveSpec(database, table string) (spec *schema.TargetTableSpec, ddl string) {
	log := o.log.With(zap.String("database", database), zap.String("table", table))

	ddl, err := o.store.ReadDDL(database, table)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to read DDL", zap.Error(err))
	}

	spec, err = o.store.ReadSpec(database, table)
	switch {
	case err == nil:
		if ddl == "" && len(spec.Columns) > 0 {
			ddl = schema.RenderDDL(spec)
		}
		return spec, ddl
	case !errors.Is(err, os.ErrNotExist):
		log.Warn("Ignoring unreadable spec", zap.Error(err))
	}

	if ddl != "" {
		if parsed, err := schema.ParseDDL(ddl); err == nil {
			spec = parsed
		} else {
			log.Warn("Could not determine table name from DDL, constructing default name", zap.Error(err))
		}
	}
	if spec == nil {
		spec = &schema.TargetTableSpec{QualifiedName: dialect.QualifiedName(database, table)}
	}
	spec.Database, spec.Table = database, table
	if override, ok := o.overrides.Lookup(database, table); ok {
		spec.LowercaseLoadColumns = override.LowercaseLoadColumns
	}
	return spec, ddl
}
