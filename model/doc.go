// Package model defines the contracts the quantization pipeline consumes.
//
// The trained network and its evaluation data are owned by the caller; quantkit
// only borrows them. A Model exposes named layers with get/set access to their
// weight tensors and a deterministic batch forward pass. A Dataset is a fixed,
// ordered sequence of labeled inputs, immutable for the duration of a run.
//
// Layer kinds are explicit tags supplied by the model-loading side. The
// quantizers never re-derive a layer's kind from naming conventions.
package model
