package clustering

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the index-blob compression algorithm.
type CompressionType uint8

const (
	// CompressionNone stores index blobs raw (the default artifact contract).
	CompressionNone CompressionType = 0
	// CompressionLZ4 favors decode speed on the consumer side.
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD favors artifact size for cold storage.
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) suffix() string {
	switch c {
	case CompressionLZ4:
		return ".lz4"
	case CompressionZSTD:
		return ".zst"
	default:
		return ""
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// blockHeaderSize prefixes every compressed blob:
// [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize == 0 means the payload is stored raw.
const blockHeaderSize = 8

func compressBlock(data []byte, compression CompressionType) ([]byte, error) {
	if compression == CompressionNone {
		return data, nil
	}

	var compressed []byte
	var err error

	switch compression {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		buf := make([]byte, bound)
		var n int
		n, err = lz4.CompressBlock(data, buf, nil)
		if err == nil && n > 0 {
			compressed = buf[:n]
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown compression type %d", compression)
	}
	if err != nil {
		return nil, err
	}

	// Store raw when compression does not pay for itself.
	if len(compressed) == 0 || len(compressed) >= len(data) {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[blockHeaderSize:], data)
		return out, nil
	}

	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], compressed)
	return out, nil
}

func decompressBlock(data []byte, compression CompressionType) ([]byte, error) {
	if compression == CompressionNone {
		return data, nil
	}
	if len(data) < blockHeaderSize {
		return nil, errors.New("compressed blob shorter than header")
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[0:])
	compressedSize := binary.LittleEndian.Uint32(data[4:])
	payload := data[blockHeaderSize:]

	if compressedSize == 0 {
		if uint32(len(payload)) != uncompressedSize {
			return nil, errors.New("raw payload size mismatch")
		}
		return payload, nil
	}
	if uint32(len(payload)) != compressedSize {
		return nil, errors.New("compressed payload size mismatch")
	}

	switch compression {
	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, err
		}
		return out[:n], nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		zstdDecoderPool.Put(dec)
		return out, err
	default:
		return nil, fmt.Errorf("unknown compression type %d", compression)
	}
}
