package sensitivity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/quantkit/blobstore"
)

// DefaultBaselineBits is the assumed pre-quantization datapath width used for
// savings reporting when none is configured. 19 bits matches the accumulator
// width of the reference accelerator datapath.
const DefaultBaselineBits = 19

// WriteReport renders the sensitivity analysis as a deterministic text table:
// one row per analyzed layer in sweep order, followed by an aggregate savings
// line weighted by per-layer parameter counts.
func (a *Analyzer) WriteReport(w io.Writer) error {
	var b strings.Builder

	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Layer-wise Quantization Sensitivity Report\n")
	fmt.Fprintf(&b, "%s\n\n", rule)
	fmt.Fprintf(&b, "Layers analyzed: %d\n\n", len(a.order))
	fmt.Fprintf(&b, "%s\n", thin)
	fmt.Fprintf(&b, "%-40s %-12s %-12s %-12s\n", "layer", "baseline", "optimal", "savings")
	fmt.Fprintf(&b, "%s\n", thin)

	var weightedBaseline, weightedOptimal float64
	for _, name := range a.order {
		rec := a.records[name]
		savings := (1 - float64(rec.OptimalBits)/float64(a.baselineBits)) * 100
		fmt.Fprintf(&b, "%-40s %-12d %-12d %.1f%%\n", rec.Layer, a.baselineBits, rec.OptimalBits, savings)

		weightedBaseline += float64(a.baselineBits) * float64(rec.ParamCount)
		weightedOptimal += float64(rec.OptimalBits) * float64(rec.ParamCount)
	}
	fmt.Fprintf(&b, "%s\n", thin)

	overall := 0.0
	if weightedBaseline > 0 {
		overall = (1 - weightedOptimal/weightedBaseline) * 100
	}
	fmt.Fprintf(&b, "\nOverall storage savings: %.1f%%\n", overall)

	_, err := io.WriteString(w, b.String())
	return err
}

// ExportReport writes the rendered report as a single artifact.
func (a *Analyzer) ExportReport(ctx context.Context, store blobstore.Store, name string) error {
	var buf bytes.Buffer
	if err := a.WriteReport(&buf); err != nil {
		return err
	}
	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	return nil
}
