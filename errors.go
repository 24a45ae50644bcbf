package quantkit

import (
	"errors"
	"fmt"

	"github.com/hupe1980/quantkit/blobstore"
	"github.com/hupe1980/quantkit/clustering"
	"github.com/hupe1980/quantkit/logquant"
	"github.com/hupe1980/quantkit/sensitivity"
)

var (
	// ErrLayerNotFound is returned when a named layer does not exist in the model.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrInvalidClusterCount is returned when a cluster count cannot produce a
	// valid codebook.
	ErrInvalidClusterCount = errors.New("invalid cluster count")

	// ErrEmptyTensor is returned when an operation receives a tensor with no
	// elements.
	ErrEmptyTensor = errors.New("tensor has no elements")

	// ErrIOFailure is returned when reading or writing an artifact fails.
	ErrIOFailure = errors.New("artifact i/o failure")
)

// ErrEvaluation indicates that model scoring failed during a sensitivity sweep.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrEvaluation struct {
	Layer string
	Bits  int
	cause error
}

func (e *ErrEvaluation) Error() string {
	if e.Bits > 0 {
		return fmt.Sprintf("evaluation failed for layer %q at %d bits", e.Layer, e.Bits)
	}
	return fmt.Sprintf("evaluation failed for layer %q", e.Layer)
}

func (e *ErrEvaluation) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Layer lookup unification.
	if errors.Is(err, sensitivity.ErrLayerNotFound) {
		return fmt.Errorf("%w: %w", ErrLayerNotFound, err)
	}
	if errors.Is(err, clustering.ErrUnknownLayer) {
		return fmt.Errorf("%w: %w", ErrLayerNotFound, err)
	}

	// Argument normalization.
	if errors.Is(err, clustering.ErrInvalidClusterCount) {
		return fmt.Errorf("%w: %w", ErrInvalidClusterCount, err)
	}
	if errors.Is(err, clustering.ErrEmptyTensor) {
		return fmt.Errorf("%w: %w", ErrEmptyTensor, err)
	}
	if errors.Is(err, logquant.ErrEmptyTensor) {
		return fmt.Errorf("%w: %w", ErrEmptyTensor, err)
	}

	// Sweep failures keep their layer and bit-width context.
	var ee *sensitivity.EvaluationError
	if errors.As(err, &ee) {
		return &ErrEvaluation{Layer: ee.Layer, Bits: ee.Bits, cause: err}
	}

	// Artifact store failures.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return err
}
