package quantkit

import (
	"context"
	"testing"

	"github.com/hupe1980/quantkit/blobstore"
	"github.com/hupe1980/quantkit/clustering"
	"github.com/hupe1980/quantkit/sensitivity"
	"github.com/hupe1980/quantkit/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, store blobstore.Store, optFns ...Option) (*Pipeline, *testutil.FakeModel) {
	t.Helper()

	m := testutil.NewSeparableNet(testutil.NewRNG(42))
	ds, err := testutil.SelfLabeledDataset(m, testutil.NewRNG(1), 64)
	require.NoError(t, err)

	p, err := New(m, ds, store, optFns...)
	require.NoError(t, err)
	return p, m
}

func TestNew(t *testing.T) {
	m := testutil.NewSeparableNet(testutil.NewRNG(42))
	ds, err := testutil.SelfLabeledDataset(m, testutil.NewRNG(1), 8)
	require.NoError(t, err)
	store := blobstore.NewMemoryStore()

	t.Run("nil model", func(t *testing.T) {
		_, err := New(nil, ds, store)
		assert.Error(t, err)
	})

	t.Run("empty dataset", func(t *testing.T) {
		_, err := New(m, nil, store)
		assert.Error(t, err)
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := New(m, ds, nil)
		assert.Error(t, err)
	})

	t.Run("invalid cluster count", func(t *testing.T) {
		_, err := New(m, ds, store, WithNumClusters(-1))
		assert.ErrorIs(t, err, ErrInvalidClusterCount)
	})
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()

	store := blobstore.NewMemoryStore()
	metrics := &BasicMetricsCollector{}

	p, m := newTestPipeline(t, store,
		WithBitRange(sensitivity.BitRange{Min: 2, Max: 8}),
		WithNumClusters(8),
		WithMetricsCollector(metrics),
	)

	// Weights before the run: the sweep must leave them untouched.
	origDW, err := m.Weights("conv1_dw")
	require.NoError(t, err)
	origKernel := origDW[0].Clone()

	result, err := p.Run(ctx)
	require.NoError(t, err)

	t.Run("records", func(t *testing.T) {
		require.Contains(t, result.Records, "conv1_dw")
		require.Contains(t, result.Records, "conv1_pw")
		assert.NotContains(t, result.Records, "fc")

		for _, rec := range result.Records {
			assert.GreaterOrEqual(t, rec.OptimalBits, 2)
			assert.LessOrEqual(t, rec.OptimalBits, 8)
			assert.Len(t, rec.Curve, 7)
		}
	})

	t.Run("config", func(t *testing.T) {
		assert.Equal(t, []string{"conv1_dw", "conv1_pw"}, result.Config.Layers())

		dw := result.Config["conv1_dw"]
		assert.Equal(t, result.Records["conv1_dw"].OptimalBits, dw.Weight)
		assert.GreaterOrEqual(t, dw.Activation, dw.Weight)
		assert.GreaterOrEqual(t, dw.Activation, 8)

		pw := result.Config["conv1_pw"]
		assert.Equal(t, result.Records["conv1_pw"].OptimalBits, pw.Weight)
		assert.Equal(t, pw.Weight+1, pw.Activation)
	})

	t.Run("clustering", func(t *testing.T) {
		require.Contains(t, result.CompressionRatios, "conv1_pw")
		assert.NotContains(t, result.CompressionRatios, "conv1_dw")
		assert.Greater(t, result.CompressionRatios["conv1_pw"], 1.0)

		occ, err := p.Quantizer().Occupancy("conv1_pw")
		require.NoError(t, err)
		assert.True(t, occ.Complete())
	})

	t.Run("artifacts", func(t *testing.T) {
		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"conv1_pw_codebook.txt",
			"conv1_pw_indices.bin",
			"mixed_precision.json",
			"sensitivity_report.txt",
		}, names)
	})

	t.Run("weights restored", func(t *testing.T) {
		after, err := m.Weights("conv1_dw")
		require.NoError(t, err)
		assert.Equal(t, origKernel.Data(), after[0].Data())
	})

	t.Run("metrics", func(t *testing.T) {
		stats := metrics.GetStats()
		assert.Equal(t, int64(2), stats.SweepCount)
		assert.Equal(t, int64(0), stats.SweepErrors)
		assert.Equal(t, int64(1), stats.ClusterCount)
		assert.Equal(t, int64(3), stats.ExportCount)
		assert.Equal(t, int64(0), stats.ExportErrors)
	})
}

func TestPipelineRun_Deterministic(t *testing.T) {
	ctx := context.Background()

	run := func() *Result {
		p, _ := newTestPipeline(t, blobstore.NewMemoryStore(),
			WithBitRange(sensitivity.BitRange{Min: 2, Max: 8}),
			WithNumClusters(8),
		)
		result, err := p.Run(ctx)
		require.NoError(t, err)
		return result
	}

	r1 := run()
	r2 := run()

	assert.Equal(t, r1.Config, r2.Config)
	assert.Equal(t, r1.CompressionRatios, r2.CompressionRatios)
	for name, rec := range r1.Records {
		assert.Equal(t, rec.Curve, r2.Records[name].Curve, name)
	}
}

func TestPipelineRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := newTestPipeline(t, blobstore.NewMemoryStore())
	_, err := p.Run(ctx)
	assert.Error(t, err)
}

func TestTranslateError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil))
	})

	t.Run("layer not found", func(t *testing.T) {
		err := translateError(sensitivity.ErrLayerNotFound)
		assert.ErrorIs(t, err, ErrLayerNotFound)

		err = translateError(clustering.ErrUnknownLayer)
		assert.ErrorIs(t, err, ErrLayerNotFound)
	})

	t.Run("cluster count", func(t *testing.T) {
		err := translateError(clustering.ErrInvalidClusterCount)
		assert.ErrorIs(t, err, ErrInvalidClusterCount)
	})

	t.Run("empty tensor", func(t *testing.T) {
		err := translateError(clustering.ErrEmptyTensor)
		assert.ErrorIs(t, err, ErrEmptyTensor)
	})

	t.Run("io failure", func(t *testing.T) {
		err := translateError(blobstore.ErrNotFound)
		assert.ErrorIs(t, err, ErrIOFailure)
	})

	t.Run("evaluation keeps context", func(t *testing.T) {
		err := translateError(&sensitivity.EvaluationError{Layer: "conv1_dw", Bits: 3})

		var ee *ErrEvaluation
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "conv1_dw", ee.Layer)
		assert.Equal(t, 3, ee.Bits)
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		cause := assert.AnError
		assert.Equal(t, cause, translateError(cause))
	})
}
