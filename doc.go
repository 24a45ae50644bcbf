// Package quantkit provides a mixed-precision quantization toolkit for
// deploying convolutional networks on fixed-point accelerators.
//
// Quantkit walks a trained model through three stages:
//
//   - Sensitivity analysis: per-layer bit-width sweeps with uniform affine
//     round-trips, scoring top-1 accuracy to find each layer's minimal
//     sufficient precision.
//   - Weight sharing: seeded k-means clustering compresses weight tensors
//     into codebook + index pairs with deterministic, reproducible output.
//   - Deployment config: per-layer weight/activation bit assignments derived
//     from layer kinds (depthwise vs. pointwise) and the measured curves.
//
// # Quick Start
//
// Run the full pipeline against a local artifact directory:
//
//	ctx := context.Background()
//	store, _ := blobstore.NewLocalStore("./artifacts")
//	p, _ := quantkit.New(m, dataset, store,
//	    quantkit.WithNumClusters(16),
//	    quantkit.WithBaselineBits(19),
//	)
//	result, _ := p.Run(ctx)
//	for layer, lb := range result.Config {
//	    fmt.Println(layer, lb.Weight, lb.Activation)
//	}
//
// Cloud mode:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("quant/"))
//	p, _ := quantkit.New(m, dataset, s3Store)
//
// # Stage Packages
//
// Each stage is usable on its own:
//
//   - sensitivity: Analyzer with checkpointed sweeps and report rendering
//   - clustering: Quantizer with codebook/index export and occupancy stats
//   - logquant: stateless logarithmic activation codec
//   - precision: mixed-precision config builder and serialization
//
// # Artifacts
//
// A pipeline run exports a sensitivity report, per-layer index blobs and
// fixed-point codebook tables, and a mixed-precision JSON config, all through
// the blobstore abstraction (local directory, S3, MinIO, in-memory).
package quantkit
