package sensitivity

import (
	"errors"
	"fmt"
)

var (
	// ErrLayerNotFound is returned when the requested layer does not exist.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrEmptyDataset marks an evaluation attempted without samples.
	// It is always wrapped in an EvaluationError.
	ErrEmptyDataset = errors.New("dataset is empty")
)

// EvaluationError indicates that scoring the model failed during a sweep.
//
// A failed evaluation aborts the whole layer's sweep: a curve with holes would
// make the minimal-bits selection depend on which points happened to survive,
// so the conservative policy is all-or-nothing per layer. Other layers are
// unaffected.
//
// The underlying error can be accessed via errors.Unwrap.
type EvaluationError struct {
	Layer string
	Bits  int // candidate width being evaluated; 0 if before the sweep
	cause error
}

func (e *EvaluationError) Error() string {
	if e.Bits > 0 {
		return fmt.Sprintf("evaluation failed for layer %q at %d bits: %v", e.Layer, e.Bits, e.cause)
	}
	return fmt.Sprintf("evaluation failed for layer %q: %v", e.Layer, e.cause)
}

func (e *EvaluationError) Unwrap() error { return e.cause }
