// Package precision builds per-layer mixed-precision deployment configs.
//
// The builder combines sensitivity records with explicit layer kind tags.
// Classification by tag rather than layer-name pattern keeps the precision
// rules independent of any model's naming convention.
package precision
