// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/memex-foundation/memex/lib/atomicfile"
	"github.com/memex-foundation/memex/lib/resource"
)

// Storage gives access to all per-vault stores. It is cheap to
// construct and safe for concurrent use: coordination happens in the
// versioned files on disk, not in this struct.
type Storage struct {
	root        string
	digest      resource.Digest
	logger      *slog.Logger
	retention   uint64
	maxAttempts int
	compression Compression
}

// New returns storage rooted at the given vault. The digest is used
// for identifiers derived from stored values (link URLs). A nil
// logger silences the storage layer.
func New(root string, digest resource.Digest, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Storage{
		root:        root,
		digest:      digest,
		logger:      logger,
		retention:   atomicfile.DefaultRetention,
		maxAttempts: atomicfile.DefaultMaxAttempts,
	}
}

// SetCompression forces one preview compression algorithm instead of
// probing per payload. An empty value restores probing.
func (s *Storage) SetCompression(compression Compression) {
	s.compression = compression
}

// SetVersioning overrides how many versions each store file keeps on
// disk and how many retries a contended write gets before giving up.
func (s *Storage) SetVersioning(retention uint64, maxAttempts int) {
	if retention >= 1 {
		s.retention = retention
	}
	if maxAttempts >= 1 {
		s.maxAttempts = maxAttempts
	}
}

// Root returns the vault root this storage serves.
func (s *Storage) Root() string { return s.root }

// open prepares the versioned file backing one store directory.
func (s *Storage) open(directory string) (*atomicfile.AtomicFile, error) {
	file, err := atomicfile.New(directory)
	if err != nil {
		return nil, err
	}
	file.SetRetention(s.retention)
	return file, nil
}

// readLatestJSON decodes the latest committed version of a store into
// target. An empty store surfaces the underlying fs.ErrNotExist.
func readLatestJSON(file *atomicfile.AtomicFile, target any) error {
	snapshot, err := file.Load()
	if err != nil {
		return err
	}
	raw, err := snapshot.ReadAll()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
