package clustering

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"sync"

	"github.com/hupe1980/quantkit/internal/kmeans"
	"github.com/hupe1980/quantkit/resource"
	"github.com/hupe1980/quantkit/tensor"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultNumClusters yields 4-bit indices.
	DefaultNumClusters = 16

	// DefaultSeed is the fixed centroid-initialization seed.
	DefaultSeed = 42

	// DefaultMaxIterations caps Lloyd's algorithm per tensor.
	DefaultMaxIterations = 100

	// MaxClusters bounds the codebook so indices fit a 16-bit element.
	MaxClusters = 1 << 16
)

// IndexTensor is an integer tensor of cluster labels with the same shape as
// its source weight tensor. Labels are stored row-major.
type IndexTensor struct {
	shape  []int
	labels []uint16
}

// Shape returns a copy of the tensor's shape.
func (it *IndexTensor) Shape() []int {
	return append([]int(nil), it.shape...)
}

// NumElements returns the total label count.
func (it *IndexTensor) NumElements() int {
	return len(it.labels)
}

// Labels returns the backing label slice in row-major order.
func (it *IndexTensor) Labels() []uint16 {
	return it.labels
}

// Entry is the stored quantization state of one layer.
type Entry struct {
	Layer    string
	Indices  *IndexTensor
	Codebook []float32
}

// Quantizer compresses weight tensors into codebook/index pairs.
//
// The cluster count is fixed for the quantizer's lifetime, so the index width
// never changes between layers. Quantizing the same layer name again replaces
// the stored entry.
type Quantizer struct {
	numClusters int
	seed        int64
	maxIter     int
	logger      *slog.Logger
	controller  *resource.Controller

	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
}

// Option configures a Quantizer.
type Option func(*Quantizer)

// WithSeed overrides the centroid-initialization seed.
func WithSeed(seed int64) Option {
	return func(q *Quantizer) {
		q.seed = seed
	}
}

// WithMaxIterations overrides the Lloyd iteration cap.
func WithMaxIterations(n int) Option {
	return func(q *Quantizer) {
		if n > 0 {
			q.maxIter = n
		}
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(q *Quantizer) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithController bounds batch quantization and export IO through a resource
// controller.
func WithController(c *resource.Controller) Option {
	return func(q *Quantizer) {
		q.controller = c
	}
}

// New creates a Quantizer with a fixed cluster count.
func New(numClusters int, opts ...Option) (*Quantizer, error) {
	if numClusters < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidClusterCount, numClusters)
	}
	if numClusters > MaxClusters {
		return nil, fmt.Errorf("%w: %d exceeds maximum %d", ErrInvalidClusterCount, numClusters, MaxClusters)
	}

	q := &Quantizer{
		numClusters: numClusters,
		seed:        DefaultSeed,
		maxIter:     DefaultMaxIterations,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		entries:     make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// NumClusters returns the fixed codebook size.
func (q *Quantizer) NumClusters() int {
	return q.numClusters
}

// IndexBits returns the per-element index width in bits, ceil(log2 k).
func (q *Quantizer) IndexBits() int {
	return bits.Len(uint(q.numClusters - 1))
}

// QuantizeLayer clusters the flattened tensor and stores the resulting
// codebook/index pair under layerName, replacing any previous entry.
func (q *Quantizer) QuantizeLayer(ctx context.Context, t *tensor.Tensor, layerName string) (*IndexTensor, []float32, error) {
	if t == nil || t.NumElements() == 0 {
		return nil, nil, fmt.Errorf("%w: layer %q", ErrEmptyTensor, layerName)
	}

	res, err := kmeans.Cluster(ctx, t.Data(), q.numClusters, q.seed, q.maxIter)
	if err != nil {
		return nil, nil, fmt.Errorf("cluster layer %q: %w", layerName, err)
	}

	idx := &IndexTensor{
		shape:  t.Shape(),
		labels: res.Labels,
	}
	codebook := append([]float32(nil), res.Centroids...)

	entry := &Entry{Layer: layerName, Indices: idx, Codebook: codebook}
	q.mu.Lock()
	if _, seen := q.entries[layerName]; !seen {
		q.order = append(q.order, layerName)
	}
	q.entries[layerName] = entry
	q.mu.Unlock()

	q.logger.Info("layer quantized",
		"layer", layerName,
		"elements", t.NumElements(),
		"clusters", q.numClusters,
		"iterations", res.Iterations,
		"converged", res.Converged,
	)
	return idx, codebook, nil
}

// QuantizeLayers clusters several independent tensors, bounded by the
// configured controller's worker slots and memory budget. Per-layer runs
// never share tensors, so they may proceed concurrently.
func (q *Quantizer) QuantizeLayers(ctx context.Context, tensors map[string]*tensor.Tensor) error {
	g, ctx := errgroup.WithContext(ctx)

	for name, t := range tensors {
		name, t := name, t
		g.Go(func() error {
			if err := q.controller.AcquireWorker(ctx); err != nil {
				return err
			}
			defer q.controller.ReleaseWorker()

			mem := int64(t.NumElements()) * 4
			if err := q.controller.AcquireMemory(ctx, mem); err != nil {
				return err
			}
			defer q.controller.ReleaseMemory(mem)

			_, _, err := q.QuantizeLayer(ctx, t, name)
			return err
		})
	}

	return g.Wait()
}

// Entry returns the stored state for a layer.
func (q *Quantizer) Entry(layerName string) (*Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[layerName]
	return e, ok
}

// Layers returns the stored layer names in first-quantization order.
func (q *Quantizer) Layers() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.order...)
}

// CompressionRatio reports the storage ratio for a stored layer against the
// given original element width:
//
//	(originalBits * N) / (indexBits * N + k * originalBits)
func (q *Quantizer) CompressionRatio(layerName string, originalBits int) (float64, error) {
	e, ok := q.Entry(layerName)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, layerName)
	}

	n := e.Indices.NumElements()
	original := float64(originalBits) * float64(n)
	compressed := float64(q.IndexBits())*float64(n) + float64(q.numClusters)*float64(originalBits)
	return original / compressed, nil
}

// Dequantize reconstructs a weight tensor by gathering codebook values per
// label. The result is exact with respect to the codebook.
func Dequantize(idx *IndexTensor, codebook []float32) (*tensor.Tensor, error) {
	data := make([]float32, len(idx.labels))
	for i, l := range idx.labels {
		if int(l) >= len(codebook) {
			return nil, fmt.Errorf("label %d out of codebook range %d", l, len(codebook))
		}
		data[i] = codebook[l]
	}
	return tensor.FromSlice(data, idx.shape...)
}
