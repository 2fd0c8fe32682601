package classifier

import (
	"errors"
	"fmt"

	"github.com/mklyu/MatrixClassifier/blobstore"
	"github.com/mklyu/MatrixClassifier/cache"
	"github.com/mklyu/MatrixClassifier/dataset"
	"github.com/mklyu/MatrixClassifier/distance"
	"github.com/mklyu/MatrixClassifier/kmedoids"
	"github.com/mklyu/MatrixClassifier/model"
	"github.com/mklyu/MatrixClassifier/precompute"
)

var (
	// ErrShapeMismatch is returned when two items of different shapes are compared.
	ErrShapeMismatch = distance.ErrShapeMismatch
	// ErrUnsupportedVariant is returned for an unknown norm type.
	ErrUnsupportedVariant = distance.ErrUnsupportedVariant
	// ErrCorruptCache is returned when a persisted cache cannot be decoded.
	ErrCorruptCache = cache.ErrCorruptCache
	// ErrPersistence is returned when a cache cannot be read or written.
	ErrPersistence = cache.ErrPersistence
	// ErrCacheFull is returned when the cache memory budget is exhausted.
	ErrCacheFull = cache.ErrCacheFull
	// ErrInvalidDistance is returned when a metric yields a negative, NaN or
	// infinite distance.
	ErrInvalidDistance = cache.ErrInvalidDistance
	// ErrInvalidK is returned when k is outside [1, N].
	ErrInvalidK = kmedoids.ErrInvalidK
	// ErrIndexOutOfRange is returned for an index outside the collection.
	ErrIndexOutOfRange = dataset.ErrIndexOutOfRange
	// ErrInvalidIndex is returned for a negative or oversized pair index.
	ErrInvalidIndex = model.ErrInvalidIndex
	// ErrInvalidUniverse is returned for a malformed pair universe.
	ErrInvalidUniverse = precompute.ErrInvalidUniverse
	// ErrDataDirNotFound is returned when the dataset directory is missing.
	ErrDataDirNotFound = dataset.ErrDataDirNotFound
	// ErrNotFound is returned when a blob does not exist.
	ErrNotFound = blobstore.ErrNotFound

	// ErrInvalidConfig is returned when a Config or option value is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrClosed is returned when a closed Classifier is used.
	ErrClosed = errors.New("classifier closed")
)

// ConfigError describes one invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.cause)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.cause }

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

func configError(field, reason string, cause error) error {
	return &ConfigError{Field: field, Reason: reason, cause: cause}
}

// translateError folds the clusterer's config error into the package-level
// sentinel so callers only need ErrInvalidConfig.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kmedoids.ErrInvalidConfig) && !errors.Is(err, ErrInvalidConfig) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return err
}
