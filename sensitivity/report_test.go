package sensitivity

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/hupe1980/quantkit/blobstore"
	"github.com/hupe1980/quantkit/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzedFixture(t *testing.T) *Analyzer {
	t.Helper()

	m := newStubModel(
		[]float64{1.0, 1.0, 0.5, 1.0},
		model.LayerInfo{Name: "conv1_dw", Kind: model.KindDepthwise},
		model.LayerInfo{Name: "conv1_pw", Kind: model.KindPointwise},
	)
	a := NewAnalyzer(m, makeDataset(10), WithDefaultBitRange(BitRange{Min: 4, Max: 5}))

	_, err := a.AnalyzeAll(context.Background())
	require.NoError(t, err)
	return a
}

func TestWriteReport(t *testing.T) {
	a := analyzedFixture(t)

	var sb strings.Builder
	require.NoError(t, a.WriteReport(&sb))
	out := sb.String()

	assert.Contains(t, out, "conv1_dw")
	assert.Contains(t, out, "conv1_pw")
	assert.Contains(t, out, "Layers analyzed: 2")
	assert.Contains(t, out, "Overall storage savings:")

	// conv1_dw selected 4 bits against a 19-bit baseline: 78.9% savings.
	assert.Contains(t, out, "78.9%")
	// conv1_pw selected 5 bits: 73.7% savings.
	assert.Contains(t, out, "73.7%")
	// Equal parameter counts: the weighted aggregate is the midpoint.
	assert.Contains(t, out, "Overall storage savings: 76.3%")
}

func TestWriteReportDeterministic(t *testing.T) {
	a := analyzedFixture(t)

	var first, second strings.Builder
	require.NoError(t, a.WriteReport(&first))
	require.NoError(t, a.WriteReport(&second))
	assert.Equal(t, first.String(), second.String())
}

func TestWriteReportCustomBaseline(t *testing.T) {
	m := newStubModel(nil, model.LayerInfo{Name: "conv1", Kind: model.KindStandard})
	a := NewAnalyzer(m, makeDataset(4), WithBaselineBits(32))

	_, err := a.AnalyzeLayer(context.Background(), "conv1", BitRange{Min: 8, Max: 8})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, a.WriteReport(&sb))
	// 8 of 32 bits: 75% savings.
	assert.Contains(t, sb.String(), "75.0%")
	assert.Contains(t, sb.String(), "32")
}

func TestExportReport(t *testing.T) {
	a := analyzedFixture(t)
	store := blobstore.NewMemoryStore()

	require.NoError(t, a.ExportReport(context.Background(), store, "sensitivity_report.txt"))

	rc, err := store.Open(context.Background(), "sensitivity_report.txt")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Sensitivity Report")
}
