// Package clustering compresses weight tensors into codebook/index pairs.
//
// Each weight is replaced by the index of its nearest cluster centroid; the
// centroids form a small shared codebook. A 16-entry codebook shrinks 32-bit
// weights to 4-bit indices:
//
//	q, _ := clustering.New(16)
//	indices, codebook, _ := q.QuantizeLayer(ctx, weights, "conv1_pw")
//	restored, _ := clustering.Dequantize(indices, codebook)
//
// Clustering is seeded Lloyd's with a fixed iteration cap, so results are
// reproducible across runs and ports. Dequantization is exact with respect to
// the stored codebook; only the original weights are approximated.
//
// Export writes hardware-facing artifacts per layer: a fixed-width row-major
// index blob and a line-oriented fixed-point codebook table.
package clustering
