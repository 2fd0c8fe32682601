// Package testutil provides testing utilities for MatrixClassifier.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Items
//
//	rng := testutil.NewRNG(seed)
//	data := make([]float32, 3*32*32)
//	rng.FillUniform(data)       // uniform [0, 1)
//	items := rng.UniformItems(100, model.Shape{3, 32, 32})
//
// # Well-Separated Groups
//
//	coll, truth := rng.SeparatedGroups(3, 20, model.Shape{4, 4}, 100, 0.5)
//
// truth[i] is the group of item i; groups are far apart relative to the
// spread inside a group, so any sane clustering recovers them.
//
// # Stubs
//
// SliceDataset is a Dataset over arbitrary items (shapes may differ), and
// CountingMetric counts metric invocations.
package testutil
