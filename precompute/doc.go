// Package precompute fills a DistanceCache over a universe of index pairs
// with a bounded pool of workers.
//
// A Universe enumerates the pairs to compute: Exhaustive yields every
// unordered pair, WindowedSample a reproducible near-linear subset.
//
// Failures do not stop the run. Every pair is attempted, all errors are
// collected and returned together after the pool drains, and the cache is
// persisted (when a persist target is configured) even if some pairs failed.
package precompute
