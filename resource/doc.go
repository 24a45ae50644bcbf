// Package resource bounds the memory, concurrency and IO footprint of
// quantization runs.
//
// Clustering cost is O(elements x clusters x iterations) and large models carry
// many tensors, so batch quantization and artifact export go through a
// Controller: worker slots cap concurrent per-tensor jobs, memory reservations
// cap resident flattened tensors, and an optional rate limiter smooths artifact
// writes against shared storage.
package resource
