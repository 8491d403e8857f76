package engine

import "errors"

var (
	// ErrTableMissingAtLoad means the gate found no target table to load into.
	ErrTableMissingAtLoad = errors.New("table missing at load")

	ErrNoSourceArtifacts = errors.New("no source artifacts found")
)
