package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptCache is returned when persisted cache data cannot be decoded.
	ErrCorruptCache = errors.New("corrupt cache")

	// ErrPersistence is matched by every *PersistenceError.
	ErrPersistence = errors.New("cache persistence failed")

	// ErrCacheFull is returned when the memory budget refuses a new entry.
	ErrCacheFull = errors.New("distance cache is full")

	// ErrInvalidDistance is returned when the metric yields a negative,
	// NaN or infinite distance. Such values are never cached.
	ErrInvalidDistance = errors.New("invalid distance")
)

// PersistenceError reports an IO failure while saving or loading a cache.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s cache %q: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
