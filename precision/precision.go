package precision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/hupe1980/quantkit/blobstore"
	"github.com/hupe1980/quantkit/codec"
	"github.com/hupe1980/quantkit/model"
	"github.com/hupe1980/quantkit/sensitivity"
)

// minDepthwiseActivationBits floors depthwise activation precision.
// Depthwise stages have no cross-channel accumulation to absorb coding noise,
// so their activations keep at least 8 bits.
const minDepthwiseActivationBits = 8

// LayerBits holds the selected weight and activation widths for one layer.
type LayerBits struct {
	Weight     int `json:"weight"`
	Activation int `json:"activation"`
}

// Config maps layer names to their mixed-precision assignment.
type Config map[string]LayerBits

// Layers returns the configured layer names in sorted order.
func (c Config) Layers() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder derives per-layer deployment configs from sensitivity records and
// explicit layer kind tags.
type Builder struct {
	codec  codec.Codec
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithCodec overrides the serialization codec.
func WithCodec(c codec.Codec) Option {
	return func(b *Builder) {
		if c != nil {
			b.codec = c
		}
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		codec:  codec.Default,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assigns widths from each record's optimal bits and the layer's kind:
//
//	depthwise: weight = opt, activation = max(opt, 8)
//	otherwise: weight = opt, activation = opt + 1
//
// Layers without a sensitivity record are omitted. Records for layers absent
// from the tag list fall back to the non-depthwise rule.
func (b *Builder) Build(records map[string]*sensitivity.Record, layers []model.LayerInfo) Config {
	kinds := make(map[string]model.LayerKind, len(layers))
	for _, l := range layers {
		kinds[l.Name] = l.Kind
	}

	cfg := make(Config, len(records))
	for name, rec := range records {
		opt := rec.OptimalBits

		lb := LayerBits{Weight: opt, Activation: opt + 1}
		if kinds[name] == model.KindDepthwise {
			lb.Activation = opt
			if lb.Activation < minDepthwiseActivationBits {
				lb.Activation = minDepthwiseActivationBits
			}
		}

		cfg[name] = lb
		b.logger.Debug("layer configured", "layer", name, "weight_bits", lb.Weight, "activation_bits", lb.Activation)
	}
	return cfg
}

// Encode serializes a config with the builder's codec.
func (b *Builder) Encode(cfg Config) ([]byte, error) {
	return b.codec.Marshal(cfg)
}

// Export writes the serialized config to an artifact store.
func (b *Builder) Export(ctx context.Context, store blobstore.Store, name string, cfg Config) error {
	data, err := b.Encode(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	b.logger.Info("config exported", "artifact", name, "layers", len(cfg))
	return nil
}
