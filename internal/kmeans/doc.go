// Package kmeans implements seeded Lloyd's clustering over scalar values.
//
// Weight codebook construction clusters the flattened elements of a single
// tensor, so the implementation is one-dimensional: the distance metric is
// absolute difference and centroids are scalar means. Everything is
// deterministic for a fixed seed: initialization draws from a private
// math/rand source, assignment ties break toward the lowest centroid index,
// and clusters that lose all members carry their previous centroid forward
// instead of being re-seeded.
package kmeans
