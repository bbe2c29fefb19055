package catalog

import (
	"errors"
	"fmt"
)

// ErrNoResults indicates a search produced zero items. Callers treat this
// as "no results", not as a failure.
var ErrNoResults = errors.New("catalog: no results")

// DecodeError indicates a response whose shape was unusable: the items
// field was absent, or the document failed to parse at all.
type DecodeError struct {
	// Call names the request that produced the response ("listing",
	// "detail", "search").
	Call string
	// Err is the underlying decode failure, if any.
	Err error
}

// Error returns a string representation of the decode error.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog: decode %s response: %v", e.Call, e.Err)
	}
	return fmt.Sprintf("catalog: decode %s response: items missing", e.Call)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *DecodeError) Unwrap() error { return e.Err }
