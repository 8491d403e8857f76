package warehouse_test

import (
	"errors"
	"fmt"
	"testing"

	"lite2flake/internal/warehouse"

	sf "github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("exec: %w", &sf.SnowflakeError{Number: 2003, Message: "boom"})

	tests := []struct {
		err                     error
		syntax, exists, missing bool
	}{
		{nil, false, false, false},
		{&sf.SnowflakeError{Number: 1003}, true, false, false},
		{&sf.SnowflakeError{Number: 2002}, false, true, false},
		{wrapped, false, false, true},
		{errors.New("SQL compilation error: Syntax error line 1"), true, false, false},
		{errors.New("Object 'T' already exists."), false, true, false},
		{errors.New("Table 'T' does not exist or not authorized."), false, false, true},
		{errors.New("connection reset by peer"), false, false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.syntax, warehouse.IsSyntaxError(tt.err), "%v", tt.err)
		assert.Equal(t, tt.exists, warehouse.IsAlreadyExists(tt.err), "%v", tt.err)
		assert.Equal(t, tt.missing, warehouse.IsMissingObject(tt.err), "%v", tt.err)
	}
}
