// Package sensitivity measures how tolerant each network layer is to reduced
// weight precision.
//
// The Analyzer sweeps candidate bit-widths over one layer at a time: it
// snapshots the layer's weights, installs a uniformly quantized round-trip
// copy, scores top-1 accuracy over the full dataset, and unconditionally
// restores the snapshot afterwards. Restoration runs on every exit path,
// including evaluation failures.
//
// A layer's optimal bit-width is the smallest candidate whose accuracy stays
// within the configured tolerance of the baseline (the accuracy at the largest
// candidate). If no candidate qualifies, the sweep falls back to the largest
// candidate rather than picking something below the tested range.
package sensitivity
