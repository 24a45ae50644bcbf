// Package testutil provides testing utilities for quantkit.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random tensors and a small
// deterministic fake network with labeled evaluation data.
//
// # Random Tensor Generation
//
//	rng := testutil.NewRNG(seed)
//	w := testutil.RandomTensor(rng, 3, 3, 8)
//
// # Fake Network (Ground Truth)
//
//	m := testutil.NewSeparableNet(testutil.NewRNG(seed))
//	ds, _ := testutil.SelfLabeledDataset(m, testutil.NewRNG(seed), 64)
//
// The dataset is labeled by the clean model's own predictions, so baseline
// top-1 accuracy is exactly 1.0 and quantization damage is measurable.
package testutil
