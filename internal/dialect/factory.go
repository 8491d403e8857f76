package dialect

import "fmt"

// GetDialect returns the Dialect implementation for a source driver name.
func GetDialect(driver string) (Dialect, error) {
	switch driver {
	case "", "sqlite", "sqlite3":
		return &SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported source driver: %s", driver)
	}
}

// Ensure interface implementation
var _ Dialect = (*SQLiteDialect)(nil)
