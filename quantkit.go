package quantkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/quantkit/blobstore"
	"github.com/hupe1980/quantkit/clustering"
	"github.com/hupe1980/quantkit/model"
	"github.com/hupe1980/quantkit/precision"
	"github.com/hupe1980/quantkit/sensitivity"
	"github.com/hupe1980/quantkit/tensor"
)

// originalWeightBits is the storage width of float32 weights, used for
// compression-ratio reporting.
const originalWeightBits = 32

// Result is the outcome of a full pipeline run.
type Result struct {
	// Records holds the per-layer sensitivity records, keyed by layer name.
	Records map[string]*sensitivity.Record

	// Config is the derived mixed-precision deployment config.
	Config precision.Config

	// CompressionRatios holds the weight-sharing compression ratio of each
	// clustered layer against float32 storage.
	CompressionRatios map[string]float64
}

// Pipeline orchestrates sensitivity analysis, weight clustering, and
// mixed-precision config generation over one model, exporting all artifacts
// to a single store.
//
// A Pipeline borrows the model: outside a run the model's weights are always
// the originals. Not safe for concurrent runs over the same model.
type Pipeline struct {
	model   model.Model
	dataset model.Dataset
	store   blobstore.Store
	opts    options

	analyzer  *sensitivity.Analyzer
	quantizer *clustering.Quantizer
	builder   *precision.Builder
}

// New creates a Pipeline over the given model, evaluation dataset, and
// artifact store.
func New(m model.Model, ds model.Dataset, store blobstore.Store, optFns ...Option) (*Pipeline, error) {
	if m == nil {
		return nil, errors.New("model must not be nil")
	}
	if ds == nil || ds.Len() == 0 {
		return nil, errors.New("dataset must not be empty")
	}
	if store == nil {
		return nil, errors.New("store must not be nil")
	}

	opts := applyOptions(optFns)

	quantizer, err := clustering.New(opts.numClusters,
		clustering.WithSeed(opts.clusterSeed),
		clustering.WithController(opts.controller),
		clustering.WithLogger(opts.logger.Logger),
	)
	if err != nil {
		return nil, translateError(err)
	}

	return &Pipeline{
		model:   m,
		dataset: ds,
		store:   store,
		opts:    opts,
		analyzer: sensitivity.NewAnalyzer(m, ds,
			sensitivity.WithLogger(opts.logger.Logger),
			sensitivity.WithDefaultBitRange(opts.bitRange),
			sensitivity.WithBaselineBits(opts.baselineBits),
			sensitivity.WithAccuracyThreshold(opts.accuracyThreshold),
		),
		quantizer: quantizer,
		builder: precision.NewBuilder(
			precision.WithCodec(opts.codec),
			precision.WithLogger(opts.logger.Logger),
		),
	}, nil
}

// Analyzer returns the pipeline's sensitivity analyzer for standalone sweeps
// or custom reporting.
func (p *Pipeline) Analyzer() *sensitivity.Analyzer {
	return p.analyzer
}

// Quantizer returns the pipeline's weight-sharing quantizer for occupancy
// inspection after a run.
func (p *Pipeline) Quantizer() *clustering.Quantizer {
	return p.quantizer
}

// Run executes the full pipeline: sweep every convolutional layer, export the
// sensitivity report, derive and export the mixed-precision config, cluster
// pointwise weights, and export their codebook/index artifacts.
//
// A failing layer aborts only its own sweep; remaining layers still run and
// their results are exported. Per-layer errors are joined into the returned
// error alongside the partial Result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	var errs []error

	for _, layer := range p.model.Layers() {
		if !layer.Kind.IsConvolution() {
			continue
		}

		start := time.Now()
		rec, err := p.analyzer.AnalyzeLayer(ctx, layer.Name, p.opts.bitRange)
		p.opts.metricsCollector.RecordSweep(layer.Name, time.Since(start), err)
		if err != nil {
			p.opts.logger.LogSweep(ctx, layer.Name, 0, err)
			errs = append(errs, translateError(err))
			if ctx.Err() != nil {
				return nil, errors.Join(errs...)
			}
			continue
		}
		p.opts.logger.LogSweep(ctx, layer.Name, rec.OptimalBits, nil)
	}

	records := p.analyzer.Records()

	if err := p.exportReport(ctx); err != nil {
		errs = append(errs, err)
	}

	cfg := p.builder.Build(records, p.model.Layers())
	if err := p.exportConfig(ctx, cfg); err != nil {
		errs = append(errs, err)
	}

	ratios, err := p.clusterPointwise(ctx, records)
	if err != nil {
		errs = append(errs, err)
	}

	return &Result{
		Records:           records,
		Config:            cfg,
		CompressionRatios: ratios,
	}, errors.Join(errs...)
}

func (p *Pipeline) exportReport(ctx context.Context) error {
	var buf bytes.Buffer
	if err := p.analyzer.WriteReport(&buf); err != nil {
		return err
	}

	start := time.Now()
	err := p.store.Put(ctx, p.opts.reportArtifact, buf.Bytes())
	p.opts.metricsCollector.RecordExport(p.opts.reportArtifact, buf.Len(), time.Since(start), err)
	p.opts.logger.LogExport(ctx, p.opts.reportArtifact, err)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIOFailure, p.opts.reportArtifact, err)
	}
	return nil
}

func (p *Pipeline) exportConfig(ctx context.Context, cfg precision.Config) error {
	data, err := p.builder.Encode(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.store.Put(ctx, p.opts.configArtifact, data)
	p.opts.metricsCollector.RecordExport(p.opts.configArtifact, len(data), time.Since(start), err)
	p.opts.logger.LogExport(ctx, p.opts.configArtifact, err)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIOFailure, p.opts.configArtifact, err)
	}
	return nil
}

// clusterPointwise applies weight sharing to every pointwise layer that
// produced a sensitivity record. 1x1 convolutions dominate parameter count in
// depthwise-separable networks while their kernels carry heavy redundancy,
// which makes them the highest-value clustering targets.
func (p *Pipeline) clusterPointwise(ctx context.Context, records map[string]*sensitivity.Record) (map[string]float64, error) {
	var errs []error
	ratios := make(map[string]float64)

	for _, layer := range p.model.Layers() {
		if layer.Kind != model.KindPointwise {
			continue
		}
		if _, ok := records[layer.Name]; !ok {
			continue
		}

		w, err := p.primaryWeight(layer.Name)
		if err != nil {
			errs = append(errs, translateError(err))
			continue
		}

		start := time.Now()
		_, _, err = p.quantizer.QuantizeLayer(ctx, w, layer.Name)
		p.opts.metricsCollector.RecordClustering(layer.Name, time.Since(start), err)
		p.opts.logger.LogClustering(ctx, layer.Name, p.opts.numClusters, err)
		if err != nil {
			errs = append(errs, translateError(err))
			if ctx.Err() != nil {
				return ratios, errors.Join(errs...)
			}
			continue
		}

		ratio, err := p.quantizer.CompressionRatio(layer.Name, originalWeightBits)
		if err != nil {
			errs = append(errs, translateError(err))
			continue
		}
		ratios[layer.Name] = ratio
	}

	if len(p.quantizer.Layers()) > 0 {
		start := time.Now()
		err := p.quantizer.Export(ctx, p.store, func(o *clustering.ExportOptions) {
			o.Compression = p.opts.compression
		})
		p.opts.metricsCollector.RecordExport("clustered weights", 0, time.Since(start), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrIOFailure, err))
		}
	}

	return ratios, errors.Join(errs...)
}

// primaryWeight returns a layer's kernel tensor: the first weight of rank > 1.
// Rank 0 and 1 tensors are biases and stay unquantized.
func (p *Pipeline) primaryWeight(layerName string) (*tensor.Tensor, error) {
	weights, err := p.model.Weights(layerName)
	if err != nil {
		return nil, err
	}
	for _, w := range weights {
		if w.Rank() > 1 {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: layer %q has no kernel tensor", ErrEmptyTensor, layerName)
}
