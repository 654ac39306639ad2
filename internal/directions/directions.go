package directions

import (
	"fmt"
	"time"
)

const DefaultTimeout = 30 * time.Second

// ErrPathUnavailable is returned when a path service fails or answers with
// something that cannot be used
type ErrPathUnavailable struct {
	Provider string
	Reason   string
}

func (e *ErrPathUnavailable) Error() string {
	return fmt.Sprintf("path unavailable from %s: %s", e.Provider, e.Reason)
}
