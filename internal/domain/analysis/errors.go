package analysis

import (
	"errors"
	"fmt"
)

// ErrRunNotFound indicates an unknown run id.
var ErrRunNotFound = errors.New("analysis run not found")

// ValidationError guards against unbounded memory use on pathological inputs.
type ValidationError struct {
	Limit int
	Count int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("too many files selected: %d exceeds the limit of %d (set MAX_ANALYSIS_FILES to raise it)", e.Count, e.Limit)
}
