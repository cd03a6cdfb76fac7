package postgres

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionAlgo names the encoding of a stored audit snapshot.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the snapshot size above which zstd is used.
const DefaultCompressThreshold = 4 * 1024

// SnapshotCodec compresses large audit snapshots before they are stored.
// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
type SnapshotCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewSnapshotCodec creates a codec. A threshold <= 0 selects DefaultCompressThreshold.
func NewSnapshotCodec(threshold int) (*SnapshotCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &SnapshotCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// Encode returns the stored form of a snapshot.
func (c *SnapshotCodec) Encode(snapshot []byte) ([]byte, CompressionAlgo) {
	if len(snapshot) <= c.threshold {
		return snapshot, CompressionNone
	}
	return c.encoder.EncodeAll(snapshot, nil), CompressionZstd
}

// Decode reverses Encode.
func (c *SnapshotCodec) Decode(stored []byte, algo CompressionAlgo) ([]byte, error) {
	switch algo {
	case CompressionNone, "":
		return stored, nil
	case CompressionZstd:
		out, err := c.decoder.DecodeAll(stored, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", algo)
	}
}
