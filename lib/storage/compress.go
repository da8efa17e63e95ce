// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm used for a stored preview
// payload. The name is persisted inside preview records, so renaming
// a value breaks decoding of existing caches.
type Compression string

const (
	// CompressionNone stores the payload as-is. Used for content that
	// is already compressed (JPEG, PNG, video stills).
	CompressionNone Compression = "none"

	// CompressionLZ4 is the fast default for binary payloads.
	CompressionLZ4 Compression = "lz4"

	// CompressionZstd trades CPU for ratio; chosen for text-like
	// payloads such as extracted plain-text previews.
	CompressionZstd Compression = "zstd"
)

// ParseCompression maps a persisted name back to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case CompressionNone, CompressionLZ4, CompressionZstd:
		return Compression(name), nil
	default:
		return "", fmt.Errorf("unknown compression %q", name)
	}
}

// zstdEncoder and zstdDecoder are shared across calls; both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("storage: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("storage: zstd decoder initialization failed: " + err.Error())
	}
}

// errIncompressible reports that compressed output would not be
// smaller than the input; callers fall back to CompressionNone.
var errIncompressible = errors.New("data is incompressible")

// compress encodes data with the given algorithm.
func compress(data []byte, compression Compression) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return destination[:written], nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("unsupported compression %q", compression)
	}
}

// decompress decodes a payload compressed by compress. The recorded
// uncompressed size is verified against what actually comes out.
func decompress(payload []byte, compression Compression, uncompressedSize int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		if len(payload) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed payload is %d bytes, recorded %d",
				len(payload), uncompressedSize)
		}
		return payload, nil

	case CompressionLZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, recorded %d", read, uncompressedSize)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != uncompressedSize {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, recorded %d", len(result), uncompressedSize)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression %q", compression)
	}
}

// selectCompression picks an algorithm for a payload. Known media
// types short-circuit the probe; otherwise a zstd trial compression
// decides between zstd, lz4, and storing as-is.
func selectCompression(data []byte, mediaType string) Compression {
	switch mediaType {
	case "text/plain", "text/html", "text/markdown",
		"application/json", "image/svg+xml":
		return CompressionZstd
	case "image/jpeg", "image/png", "image/gif", "image/webp",
		"video/mp4", "video/webm":
		return CompressionNone
	}

	if len(data) == 0 {
		return CompressionNone
	}
	trial := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(trial))
	switch {
	case ratio >= 1.5:
		return CompressionZstd
	case ratio >= 1.1:
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// compressAuto compresses data with the best algorithm for its media
// type, falling back to storing it uncompressed when nothing helps. A
// non-empty forced algorithm bypasses selection but keeps the
// incompressible fallback.
func compressAuto(data []byte, mediaType string, forced Compression) ([]byte, Compression, error) {
	compression := forced
	if compression == "" {
		compression = selectCompression(data, mediaType)
	}
	payload, err := compress(data, compression)
	if err != nil {
		if errors.Is(err, errIncompressible) {
			return data, CompressionNone, nil
		}
		return nil, "", err
	}
	return payload, compression, nil
}
