package sensitivity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/quantkit/model"
	"github.com/hupe1980/quantkit/tensor"
)

const (
	// defaultThreshold accepts a candidate width once it retains 99% of the
	// baseline accuracy.
	defaultThreshold = 0.99

	// evalBatchSize is the forward-pass batch size during accuracy scoring.
	evalBatchSize = 64
)

// BitRange is an inclusive range of candidate bit-widths.
type BitRange struct {
	Min int
	Max int
}

// DefaultBitRange returns the standard sweep range of 4..16 bits.
func DefaultBitRange() BitRange {
	return BitRange{Min: 4, Max: 16}
}

func (r BitRange) validate() error {
	if r.Min < 1 {
		return fmt.Errorf("bit range minimum must be positive, got %d", r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("bit range maximum %d below minimum %d", r.Max, r.Min)
	}
	return nil
}

// Point is one measured point of a sensitivity curve.
type Point struct {
	Bits     int
	Accuracy float64
}

// Record is the immutable outcome of one layer sweep. A repeated sweep of the
// same layer replaces the previous record.
type Record struct {
	// Layer is the analyzed layer's name.
	Layer string
	// Curve holds one point per candidate width, ascending by bits.
	Curve []Point
	// OptimalBits is the selected minimal sufficient width.
	OptimalBits int
	// Baseline is the accuracy measured at the largest candidate width.
	Baseline float64
	// ParamCount is the number of quantizable weight elements in the layer.
	ParamCount int
}

// Analyzer sweeps candidate bit-widths per layer to find minimal sufficient
// precision. It borrows the model for the duration of a sweep and owns write
// access to the swept layer's weights until the sweep returns.
//
// Not safe for concurrent sweeps over the same model; this is caller
// discipline, not enforced by a lock.
type Analyzer struct {
	model   model.Model
	dataset model.Dataset
	logger  *slog.Logger

	defaultRange BitRange
	baselineBits int
	threshold    float64

	records map[string]*Record
	order   []string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDefaultBitRange overrides the range used by AnalyzeAll.
func WithDefaultBitRange(r BitRange) Option {
	return func(a *Analyzer) {
		a.defaultRange = r
	}
}

// WithBaselineBits sets the pre-quantization datapath width used for savings
// reporting. It must match the deployment target's native word size.
func WithBaselineBits(bits int) Option {
	return func(a *Analyzer) {
		if bits > 0 {
			a.baselineBits = bits
		}
	}
}

// WithAccuracyThreshold overrides the fraction of baseline accuracy a
// candidate width must retain (default 0.99).
func WithAccuracyThreshold(t float64) Option {
	return func(a *Analyzer) {
		if t > 0 && t <= 1 {
			a.threshold = t
		}
	}
}

// NewAnalyzer creates an analyzer over the given model and evaluation dataset.
// Both are borrowed, never owned: outside a sweep the model's weights are
// always the pre-sweep originals.
func NewAnalyzer(m model.Model, ds model.Dataset, opts ...Option) *Analyzer {
	a := &Analyzer{
		model:        m,
		dataset:      ds,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		defaultRange: DefaultBitRange(),
		baselineBits: DefaultBaselineBits,
		threshold:    defaultThreshold,
		records:      make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeLayer sweeps the candidate widths of r over one layer and returns the
// resulting record. The layer's weights are restored before returning, on
// every path.
func (a *Analyzer) AnalyzeLayer(ctx context.Context, layerName string, r BitRange) (_ *Record, err error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if !a.layerExists(layerName) {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, layerName)
	}
	if a.dataset == nil || a.dataset.Len() == 0 {
		return nil, &EvaluationError{Layer: layerName, cause: ErrEmptyDataset}
	}

	cp, err := snapshot(a.model, layerName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := cp.restore(a.model); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	a.logger.Info("analyzing layer", "layer", layerName, "min_bits", r.Min, "max_bits", r.Max)

	curve := make([]Point, 0, r.Max-r.Min+1)
	for bits := r.Min; bits <= r.Max; bits++ {
		if cerr := ctx.Err(); cerr != nil {
			return nil, &EvaluationError{Layer: layerName, Bits: bits, cause: cerr}
		}

		if serr := a.model.SetWeights(layerName, roundTripLayer(cp.weights, bits)); serr != nil {
			return nil, &EvaluationError{Layer: layerName, Bits: bits, cause: serr}
		}

		acc, eerr := a.evaluate(ctx)
		if eerr != nil {
			return nil, &EvaluationError{Layer: layerName, Bits: bits, cause: eerr}
		}

		a.logger.Debug("sweep point", "layer", layerName, "bits", bits, "accuracy", acc)
		curve = append(curve, Point{Bits: bits, Accuracy: acc})
	}

	rec := &Record{
		Layer:       layerName,
		Curve:       curve,
		Baseline:    curve[len(curve)-1].Accuracy,
		ParamCount:  quantizableParams(cp.weights),
		OptimalBits: r.Max,
	}
	for _, p := range curve {
		if p.Accuracy >= rec.Baseline*a.threshold {
			rec.OptimalBits = p.Bits
			break
		}
	}

	a.store(rec)
	a.logger.Info("layer analyzed", "layer", layerName, "optimal_bits", rec.OptimalBits, "baseline_accuracy", rec.Baseline)
	return rec, nil
}

// AnalyzeAll sweeps every convolutional layer with the default range, in model
// declaration order. A failing layer aborts only its own sweep; the remaining
// layers still run and partial results are returned alongside the joined
// per-layer errors.
func (a *Analyzer) AnalyzeAll(ctx context.Context) (map[string]*Record, error) {
	var errs []error
	for _, layer := range a.model.Layers() {
		if !layer.Kind.IsConvolution() {
			continue
		}
		if _, err := a.AnalyzeLayer(ctx, layer.Name, a.defaultRange); err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return a.Records(), errors.Join(errs...)
}

// Records returns a copy of the accumulated per-layer records.
func (a *Analyzer) Records() map[string]*Record {
	out := make(map[string]*Record, len(a.records))
	for k, v := range a.records {
		out[k] = v
	}
	return out
}

// BaselineBits returns the configured pre-quantization datapath width.
func (a *Analyzer) BaselineBits() int {
	return a.baselineBits
}

func (a *Analyzer) layerExists(name string) bool {
	for _, l := range a.model.Layers() {
		if l.Name == name {
			return true
		}
	}
	return false
}

func (a *Analyzer) store(rec *Record) {
	if _, seen := a.records[rec.Layer]; !seen {
		a.order = append(a.order, rec.Layer)
	}
	a.records[rec.Layer] = rec
}

// evaluate scores top-1 accuracy of the model's current weights over the full
// dataset, batching forward passes.
func (a *Analyzer) evaluate(ctx context.Context) (float64, error) {
	n := a.dataset.Len()
	matches := 0

	for start := 0; start < n; start += evalBatchSize {
		end := start + evalBatchSize
		if end > n {
			end = n
		}

		inputs := make([]*tensor.Tensor, 0, end-start)
		for i := start; i < end; i++ {
			inputs = append(inputs, a.dataset.Sample(i).Input)
		}

		scores, err := a.model.Forward(ctx, inputs)
		if err != nil {
			return 0, err
		}
		if len(scores) != len(inputs) {
			return 0, fmt.Errorf("forward returned %d score rows for %d inputs", len(scores), len(inputs))
		}

		for i, row := range scores {
			if argmax(row) == a.dataset.Sample(start+i).Label {
				matches++
			}
		}
	}

	return float64(matches) / float64(n), nil
}

func argmax(scores []float32) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}

func quantizableParams(weights []*tensor.Tensor) int {
	n := 0
	for _, w := range weights {
		if w.Rank() > 1 {
			n += w.NumElements()
		}
	}
	return n
}
