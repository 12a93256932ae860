package enrichment

import "errors"

// ErrBatchNotFound indicates an unknown batch id.
var ErrBatchNotFound = errors.New("enrichment batch not found")

// ErrResultNotFound indicates no settled result matches the requested id.
var ErrResultNotFound = errors.New("enrichment result not found")
