// Package compression provides payload compressors for stored records.
// The event journal compresses large event payloads before persisting
// them; small payloads are stored as-is.
package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4"
)

// Compressor compresses and decompresses opaque payloads.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// NoCompressor is a pass-through compressor.
type NoCompressor struct{}

func (c *NoCompressor) Name() string { return "none" }

func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (c *NoCompressor) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

// LZ4Compressor implements LZ4 block compression. Output is framed with a
// 5-byte header (flag + original length) so incompressible payloads can be
// stored raw and still round-trip.
type LZ4Compressor struct{}

const (
	frameRaw  = 0
	frameLZ4  = 1
	headerLen = 5
)

func (c *LZ4Compressor) Name() string { return "lz4" }

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	header := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(header[1:], uint32(len(data)))

	if len(data) == 0 {
		header[0] = frameRaw
		return header, nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 || n >= len(data) {
		// Incompressible input; store raw.
		header[0] = frameRaw
		return append(header, data...), nil
	}

	header[0] = frameLZ4
	return append(header, compressed[:n]...), nil
}

func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("lz4 frame too short: %d bytes", len(data))
	}

	origLen := binary.LittleEndian.Uint32(data[1:headerLen])
	body := data[headerLen:]

	switch data[0] {
	case frameRaw:
		if uint32(len(body)) != origLen {
			return nil, fmt.Errorf("raw frame length mismatch: header %d, body %d", origLen, len(body))
		}
		return append([]byte(nil), body...), nil
	case frameLZ4:
		decompressed := make([]byte, origLen)
		n, err := lz4.UncompressBlock(body, decompressed)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		return decompressed[:n], nil
	default:
		return nil, fmt.Errorf("unknown lz4 frame flag: %d", data[0])
	}
}

// ByName returns the compressor registered under name.
func ByName(name string) (Compressor, error) {
	switch name {
	case "", "none":
		return &NoCompressor{}, nil
	case "lz4":
		return &LZ4Compressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
}
