// Package dataset provides the item collections consumed by the cache,
// precompute engine and clusterer.
//
// Items live in a Collection: a single contiguous float32 arena holding
// fixed-shape items back to back. An item's identity is its arena index,
// so two items with equal values stored at different indices are distinct.
//
// LoadCIFAR10 fills a Collection from CIFAR-10 binary batch files.
package dataset
