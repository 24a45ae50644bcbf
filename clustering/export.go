package clustering

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/quantkit/blobstore"
	"github.com/hupe1980/quantkit/internal/fixedpoint"
)

const (
	// DefaultFractionalBits is the fixed-point fractional precision of
	// exported codebook entries.
	DefaultFractionalBits = 10

	// DefaultWordWidth is the fixed-point word width of exported codebook
	// entries, matching the reference accelerator datapath.
	DefaultWordWidth = 20
)

// ExportOptions controls artifact rendering.
type ExportOptions struct {
	// Compression applies to index blobs only; codebook tables stay text.
	Compression CompressionType
	// FractionalBits is the fixed-point fractional precision.
	FractionalBits int
	// WordWidth is the fixed-point word width in bits.
	WordWidth int
}

func defaultExportOptions() ExportOptions {
	return ExportOptions{
		Compression:    CompressionNone,
		FractionalBits: DefaultFractionalBits,
		WordWidth:      DefaultWordWidth,
	}
}

// IndexBlobName returns the artifact name of a layer's index blob.
func IndexBlobName(layer string, compression CompressionType) string {
	return layer + "_indices.bin" + compression.suffix()
}

// CodebookName returns the artifact name of a layer's codebook table.
func CodebookName(layer string) string {
	return layer + "_codebook.txt"
}

// Export writes the stored state of every quantized layer: a fixed-width
// row-major index blob and a line-oriented fixed-point codebook table per
// layer. Writes go through the store's atomic Put, so a failing artifact
// leaves nothing partial behind; the error aborts the export.
func (q *Quantizer) Export(ctx context.Context, store blobstore.Store, optFns ...func(*ExportOptions)) error {
	opts := defaultExportOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	for _, layer := range q.Layers() {
		e, _ := q.Entry(layer)

		blob, err := compressBlock(encodeIndices(e.Indices, q.numClusters), opts.Compression)
		if err != nil {
			return fmt.Errorf("compress indices for layer %q: %w", layer, err)
		}

		name := IndexBlobName(layer, opts.Compression)
		if err := q.controller.AcquireIO(ctx, len(blob)); err != nil {
			return err
		}
		if err := store.Put(ctx, name, blob); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}

		table := renderCodebook(e.Codebook, opts.FractionalBits, opts.WordWidth)
		name = CodebookName(layer)
		if err := q.controller.AcquireIO(ctx, len(table)); err != nil {
			return err
		}
		if err := store.Put(ctx, name, table); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}

		q.logger.Info("layer exported", "layer", layer, "index_bytes", len(blob), "codebook_entries", len(e.Codebook))
	}
	return nil
}

// encodeIndices packs labels row-major at the smallest fixed byte width that
// holds the cluster count: one byte up to 256 clusters, two bytes (little
// endian) beyond.
func encodeIndices(idx *IndexTensor, numClusters int) []byte {
	labels := idx.Labels()
	if numClusters <= 256 {
		out := make([]byte, len(labels))
		for i, l := range labels {
			out[i] = byte(l)
		}
		return out
	}

	out := make([]byte, 2*len(labels))
	for i, l := range labels {
		binary.LittleEndian.PutUint16(out[2*i:], l)
	}
	return out
}

// renderCodebook produces one line per entry:
//
//	00: 00000000010000000000  // 1.000000
//
// The bit pattern is the authoritative hardware value; the float comment is
// for inspection.
func renderCodebook(codebook []float32, fracBits, width int) []byte {
	var b bytes.Buffer
	for i, v := range codebook {
		fmt.Fprintf(&b, "%02d: %s  // %.6f\n", i, fixedpoint.Format(float64(v), fracBits, width), v)
	}
	return b.Bytes()
}

// ReadIndexLabels loads and decodes a layer's exported index blob.
// numClusters must match the exporting quantizer so the element width agrees.
func ReadIndexLabels(ctx context.Context, store blobstore.Store, layer string, numClusters int, compression CompressionType) ([]uint16, error) {
	rc, err := store.Open(ctx, IndexBlobName(layer, compression))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	data, err := decompressBlock(raw, compression)
	if err != nil {
		return nil, err
	}

	if numClusters <= 256 {
		labels := make([]uint16, len(data))
		for i, b := range data {
			labels[i] = uint16(b)
		}
		return labels, nil
	}

	if len(data)%2 != 0 {
		return nil, fmt.Errorf("index blob for layer %q has odd length %d", layer, len(data))
	}
	labels := make([]uint16, len(data)/2)
	for i := range labels {
		labels[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return labels, nil
}

// ParseCodebook reads a codebook table back from its fixed-point bit patterns.
func ParseCodebook(r io.Reader, fracBits int) ([]float32, error) {
	var out []float32

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		_, rest, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("malformed codebook line %q", line)
		}
		pattern, _, _ := strings.Cut(rest, " ")

		v, err := fixedpoint.Decode(pattern, fracBits)
		if err != nil {
			return nil, err
		}
		out = append(out, float32(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
