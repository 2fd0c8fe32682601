package kmedoids

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is matched by every *InvalidKError.
	ErrInvalidK = errors.New("invalid k")

	// ErrInvalidConfig is returned for invalid clusterer settings.
	ErrInvalidConfig = errors.New("invalid clusterer config")
)

// InvalidKError reports a cluster count outside [1, N].
type InvalidKError struct {
	K int
	N int
}

func (e *InvalidKError) Error() string {
	return fmt.Sprintf("invalid k: %d (dataset has %d items, need 1 <= k <= %d)", e.K, e.N, e.N)
}

// Is allows errors.Is(err, ErrInvalidK).
func (e *InvalidKError) Is(target error) bool { return target == ErrInvalidK }
