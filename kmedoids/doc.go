// Package kmedoids partitions a dataset into K clusters around medoids.
//
// The Clusterer is a small state machine:
//
//	Initialized -> Iterating -> Converged | Exhausted
//
// Each iteration assigns every item to its nearest medoid (ties go to the
// earliest medoid, and a medoid always belongs to its own cluster), then
// replaces each medoid with the member that minimizes the sum of distances
// to the other members of its cluster (ties go to the lowest index).
// Iteration stops when the medoid set, compared as a set of item indices,
// no longer changes, or when MaxIterations is reached.
//
// Distances are requested through distance.IndexedMetric, normally a
// cache.DistanceCache populated by the precompute package. With Workers > 1
// the assign and update steps run in parallel and produce exactly the same
// result as the sequential path.
package kmedoids
