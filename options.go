package quantkit

import (
	"log/slog"

	"github.com/hupe1980/quantkit/clustering"
	"github.com/hupe1980/quantkit/codec"
	"github.com/hupe1980/quantkit/resource"
	"github.com/hupe1980/quantkit/sensitivity"
)

type options struct {
	codec            codec.Codec
	logger           *Logger
	metricsCollector MetricsCollector
	controller       *resource.Controller

	bitRange          sensitivity.BitRange
	baselineBits      int
	accuracyThreshold float64

	numClusters int
	clusterSeed int64
	compression clustering.CompressionType

	reportArtifact string
	configArtifact string
}

// Option configures Pipeline behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
type Option func(*options)

// WithCodec configures the codec used for the mixed-precision config artifact.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithBitRange configures the sensitivity sweep range (default 4..16).
func WithBitRange(r sensitivity.BitRange) Option {
	return func(o *options) {
		o.bitRange = r
	}
}

// WithBaselineBits configures the pre-quantization datapath width used for
// savings reporting (default 19, the reference accumulator width).
func WithBaselineBits(bits int) Option {
	return func(o *options) {
		if bits > 0 {
			o.baselineBits = bits
		}
	}
}

// WithAccuracyThreshold configures the fraction of baseline accuracy a
// candidate bit-width must retain to qualify as sufficient (default 0.99).
func WithAccuracyThreshold(t float64) Option {
	return func(o *options) {
		if t > 0 && t <= 1 {
			o.accuracyThreshold = t
		}
	}
}

// WithNumClusters configures the weight-sharing codebook size (default 16,
// which yields 4-bit indices).
func WithNumClusters(k int) Option {
	return func(o *options) {
		o.numClusters = k
	}
}

// WithClusterSeed configures the centroid-initialization seed (default 42).
// Fixing the seed makes codebooks and index tensors reproducible run to run.
func WithClusterSeed(seed int64) Option {
	return func(o *options) {
		o.clusterSeed = seed
	}
}

// WithCompression configures index-blob compression for exported artifacts
// (default none).
func WithCompression(c clustering.CompressionType) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithController configures resource limits (worker slots, memory budget,
// artifact IO throughput) for batch clustering and export.
// Pass nil to run unbounded.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithArtifactNames overrides the report and config artifact names.
func WithArtifactNames(report, config string) Option {
	return func(o *options) {
		if report != "" {
			o.reportArtifact = report
		}
		if config != "" {
			o.configArtifact = config
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &quantkit.BasicMetricsCollector{}
//	p, _ := quantkit.New(m, ds, store, quantkit.WithMetricsCollector(metrics))
//	// ... run the pipeline ...
//	stats := metrics.GetStats()
//	fmt.Printf("Sweeps: %d, Avg latency: %dns\n", stats.SweepCount, stats.SweepAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := quantkit.NewJSONLogger(slog.LevelInfo)
//	p, _ := quantkit.New(m, ds, store, quantkit.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:             codec.Default,
		logger:            NoopLogger(),
		metricsCollector:  NoopMetricsCollector{},
		bitRange:          sensitivity.DefaultBitRange(),
		baselineBits:      sensitivity.DefaultBaselineBits,
		accuracyThreshold: 0.99,
		numClusters:       clustering.DefaultNumClusters,
		clusterSeed:       clustering.DefaultSeed,
		reportArtifact:    "sensitivity_report.txt",
		configArtifact:    "mixed_precision.json",
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
