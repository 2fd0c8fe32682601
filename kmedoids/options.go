package kmedoids

import (
	"log/slog"

	"github.com/mklyu/MatrixClassifier/model"
)

type options struct {
	logger      *slog.Logger
	initial     []model.Index
	onIteration func(IterationInfo)
}

// Option configures a Clusterer.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithInitialMedoids replaces the random initialization. The indices must
// be distinct, in range, and exactly K of them.
func WithInitialMedoids(medoids ...model.Index) Option {
	return func(o *options) {
		o.initial = cloneIndices(medoids)
	}
}

// WithOnIteration registers a callback invoked after every iteration.
func WithOnIteration(fn func(IterationInfo)) Option {
	return func(o *options) {
		o.onIteration = fn
	}
}
