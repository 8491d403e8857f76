package warehouse_test

import (
	"context"
	"errors"
	"testing"

	"lite2flake/internal/warehouse"

	sf "github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixedCounter struct {
	n   int64
	err error
}

func (c fixedCounter) Count(context.Context, string) (int64, error) { return c.n, c.err }

func TestGateCheck(t *testing.T) {
	ctx := context.Background()

	res, err := warehouse.NewGate(fixedCounter{n: 0}, false, nil).Check(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, warehouse.GateResult{State: warehouse.GateExistsEmpty}, res)

	res, err = warehouse.NewGate(fixedCounter{n: 10}, false, nil).Check(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, warehouse.GateResult{State: warehouse.GateExistsWithData, RowCount: 10}, res)

	res, err = warehouse.NewGate(fixedCounter{err: errors.New("SQL compilation error:\nObject 'T' does not exist or not authorized.")}, false, nil).Check(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, warehouse.GateMissing, res.State)

	res, err = warehouse.NewGate(fixedCounter{err: errors.New("Invalid object name 'T'")}, false, nil).Check(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, warehouse.GateMissing, res.State)

	res, err = warehouse.NewGate(fixedCounter{err: &sf.SnowflakeError{Number: 2003}}, true, nil).Check(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, warehouse.GateMissing, res.State)
}

func TestGateAmbiguousError(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	permission := errors.New("Insufficient privileges to operate on table 'T'")

	res, err := warehouse.NewGate(fixedCounter{err: permission}, false, zap.New(core)).Check(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, warehouse.GateExistsEmpty, res.State)
	assert.Equal(t, 1, logs.Len())

	_, err = warehouse.NewGate(fixedCounter{err: permission}, true, zap.New(core)).Check(ctx, "T")
	require.Error(t, err)
	assert.True(t, errors.Is(err, permission))
}

func TestGateStateString(t *testing.T) {
	assert.Equal(t, "MISSING", warehouse.GateMissing.String())
	assert.Equal(t, "EXISTS_EMPTY", warehouse.GateExistsEmpty.String())
	assert.Equal(t, "EXISTS_WITH_DATA", warehouse.GateExistsWithData.String())
}
