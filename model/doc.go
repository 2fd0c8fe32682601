// Package model defines core types used throughout MatrixClassifier.
//
// # Identity Types
//
//   - Index: 0-based position of an item inside its owning collection
//   - PairKey: canonical unordered pair of distinct indices (cache key)
//
// # Data Types
//
//   - Shape: dimensions of a fixed-shape numeric array
//   - Item: immutable numeric array with its shape
//
// Items are identified by their Index, never by value. Two items holding
// equal numbers are still different items when they live at different
// positions of a collection.
package model
