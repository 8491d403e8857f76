package warehouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type GateState int

const (
	GateMissing GateState = iota
	GateExistsEmpty
	GateExistsWithData
)

func (s GateState) String() string {
	switch s {
	case GateMissing:
		return "MISSING"
	case GateExistsEmpty:
		return "EXISTS_EMPTY"
	case GateExistsWithData:
		return "EXISTS_WITH_DATA"
	}
	return fmt.Sprintf("GateState(%d)", int(s))
}

type GateResult struct {
	State    GateState
	RowCount int64
}

// Counter counts rows in a table.
type Counter interface {
	Count(ctx context.Context, table string) (int64, error)
}

// Gate decides whether a table may be loaded.
type Gate struct {
	counter Counter
	strict  bool
	log     *zap.Logger
}

// NewGate returns a gate. In strict mode, count failures that do not say the
// table is missing are returned as errors instead of being read as an empty
// table.
func NewGate(counter Counter, strict bool, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{counter: counter, strict: strict, log: log}
}

func (g *Gate) Check(ctx context.Context, qualifiedName string) (GateResult, error) {
	n, err := g.counter.Count(ctx, qualifiedName)
	switch {
	case err == nil && n > 0:
		return GateResult{State: GateExistsWithData, RowCount: n}, nil
	case err == nil:
		return GateResult{State: GateExistsEmpty}, nil
	case IsMissingObject(err):
		return GateResult{State: GateMissing}, nil
	case g.strict:
		return GateResult{}, fmt.Errorf("checking %s: %w", qualifiedName, err)
	}

	g.log.Warn("Error checking if table has data, assuming it is empty",
		zap.String("table", qualifiedName), zap.Error(err))
	return GateResult{State: GateExistsEmpty}, nil
}
