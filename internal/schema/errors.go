package schema

import "errors"

// ErrSchemaUnavailable means the source catalog could not describe a table.
// No DDL is produced for it and it is not retried.
var ErrSchemaUnavailable = errors.New("schema unavailable")
