// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"fmt"

	"github.com/memex-foundation/memex/lib/atomicfile"
	"github.com/memex-foundation/memex/lib/codec"
	"github.com/memex-foundation/memex/lib/resource"
	"github.com/memex-foundation/memex/lib/vault"
)

// previewRecord is the CBOR envelope a preview is cached in. The
// payload is compressed per its media type; the uncompressed size is
// recorded so decompression can verify itself.
type previewRecord struct {
	MediaType        string `cbor:"media_type"`
	Compression      string `cbor:"compression"`
	UncompressedSize uint64 `cbor:"uncompressed_size"`
	Payload          []byte `cbor:"payload"`
}

// StorePreview caches a rendered preview (thumbnail, text extract)
// for a resource. Previews are generated data: a new preview replaces
// the old one outright.
func (s *Storage) StorePreview(id resource.ID, mediaType string, data []byte) error {
	payload, compression, err := compressAuto(data, mediaType, s.compression)
	if err != nil {
		return fmt.Errorf("compressing preview for %s: %w", id, err)
	}

	encoded, err := codec.Marshal(previewRecord{
		MediaType:        mediaType,
		Compression:      string(compression),
		UncompressedSize: uint64(len(data)),
		Payload:          payload,
	})
	if err != nil {
		return fmt.Errorf("encoding preview record for %s: %w", id, err)
	}

	file, err := s.open(vault.PreviewPath(s.root, id))
	if err != nil {
		return fmt.Errorf("opening preview cache for %s: %w", id, err)
	}
	err = atomicfile.ModifyN(file, s.maxAttempts, func([]byte) ([]byte, error) {
		return encoded, nil
	})
	if err != nil {
		return fmt.Errorf("storing preview for %s: %w", id, err)
	}

	s.logger.Debug("preview stored",
		"id", id, "media_type", mediaType,
		"compression", compression, "bytes", len(payload))
	return nil
}

// LoadPreview returns a cached preview and its media type. A resource
// with no cached preview returns an error wrapping fs.ErrNotExist.
func (s *Storage) LoadPreview(id resource.ID) (mediaType string, data []byte, err error) {
	file, err := s.open(vault.PreviewPath(s.root, id))
	if err != nil {
		return "", nil, fmt.Errorf("opening preview cache for %s: %w", id, err)
	}
	snapshot, err := file.Load()
	if err != nil {
		return "", nil, fmt.Errorf("loading preview for %s: %w", id, err)
	}
	raw, err := snapshot.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("reading preview for %s: %w", id, err)
	}

	var record previewRecord
	if err := codec.Unmarshal(raw, &record); err != nil {
		return "", nil, fmt.Errorf("decoding preview record for %s: %w", id, err)
	}
	compression, err := ParseCompression(record.Compression)
	if err != nil {
		return "", nil, fmt.Errorf("preview record for %s: %w", id, err)
	}

	data, err = decompress(record.Payload, compression, int(record.UncompressedSize))
	if err != nil {
		return "", nil, fmt.Errorf("decompressing preview for %s: %w", id, err)
	}
	return record.MediaType, data, nil
}
