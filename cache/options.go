package cache

import (
	"log/slog"

	"github.com/mklyu/MatrixClassifier/internal/fs"
	"github.com/mklyu/MatrixClassifier/internal/resource"
	"github.com/mklyu/MatrixClassifier/persistence"
)

type options struct {
	compression persistence.CompressionType
	rc          *resource.Controller
	fs          fs.FileSystem
	logger      *slog.Logger
}

// Option configures a DistanceCache.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCompression sets the payload compression used by Serialize.
func WithCompression(ct persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = ct
	}
}

// WithResourceController charges entries against a memory budget and
// throttles persistence IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithFileSystem sets the file system used by Save and Load.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}
