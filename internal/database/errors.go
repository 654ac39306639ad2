package database

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("entity not found")

// ErrLookupFailed is returned when a spatial lookup cannot be answered
type ErrLookupFailed struct {
	Reason string
}

func (e *ErrLookupFailed) Error() string {
	return fmt.Sprintf("place lookup failed: %s", e.Reason)
}
