// Package distance provides the pairwise metrics used to compare items.
//
// Two norm variants are available: Frobenius (matrix norm of the
// element-wise difference) and L2 (Euclidean norm of the flattened
// difference). Both are pure functions of their inputs, symmetric and
// deterministic, which is what allows their results to be cached.
package distance
