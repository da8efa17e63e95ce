// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/memex-foundation/memex/lib/atomicfile"
	"github.com/memex-foundation/memex/lib/resource"
	"github.com/memex-foundation/memex/lib/vault"
)

// Kind is the coarse content classification used to route resources
// to viewers and preview generators.
type Kind string

const (
	KindImage     Kind = "image"
	KindVideo     Kind = "video"
	KindDocument  Kind = "document"
	KindLink      Kind = "link"
	KindPlainText Kind = "plaintext"
	KindArchive   Kind = "archive"
)

var kindByExtension = map[string]Kind{
	"link": KindLink,

	"pdf": KindDocument, "doc": KindDocument, "docx": KindDocument,
	"odt": KindDocument, "ods": KindDocument, "md": KindDocument,

	"jpg": KindImage, "jpeg": KindImage, "png": KindImage,
	"svg": KindImage, "gif": KindImage,

	"zip": KindArchive, "7z": KindArchive, "rar": KindArchive,

	"mp4": KindVideo, "avi": KindVideo, "mkv": KindVideo,
	"mov": KindVideo, "wmv": KindVideo, "flv": KindVideo,
	"webm": KindVideo, "ts": KindVideo, "mpg": KindVideo,
}

// KindForPath classifies a file by extension. Unrecognized extensions
// fall back to plain text.
func KindForPath(path string) Kind {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tar.xz") {
		return KindArchive
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if kind, ok := kindByExtension[ext]; ok {
		return kind
	}
	return KindPlainText
}

// Metadata is the generated description of a resource. It is derived
// deterministically from the file itself, so any device may rebuild
// it and overwriting is always safe.
type Metadata struct {
	ID        resource.ID `json:"id"`
	Name      string      `json:"name,omitempty"`
	Extension string      `json:"extension,omitempty"`
	Modified  time.Time   `json:"modified"`
	Kind      Kind        `json:"kind"`
}

// Describe builds metadata for the file at path, which must hold the
// content identified by id.
func Describe(path string, id resource.ID) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("describing %s: %w", path, err)
	}
	if info.IsDir() {
		return Metadata{}, fmt.Errorf("describing %s: not a file", path)
	}

	return Metadata{
		ID:        id,
		Name:      filepath.Base(path),
		Extension: strings.TrimPrefix(filepath.Ext(path), "."),
		Modified:  info.ModTime().Truncate(time.Millisecond).UTC(),
		Kind:      KindForPath(path),
	}, nil
}

// StoreMetadata persists generated metadata for a resource. Unlike
// properties, metadata is regenerated identically everywhere, so an
// existing value is replaced rather than merged.
func (s *Storage) StoreMetadata(id resource.ID, metadata Metadata) error {
	file, err := s.open(vault.MetadataPath(s.root, id))
	if err != nil {
		return fmt.Errorf("opening metadata store for %s: %w", id, err)
	}

	err = atomicfile.ModifyJSONN(file, s.maxAttempts, func(current *Metadata, exists bool) error {
		*current = metadata
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing metadata for %s: %w", id, err)
	}

	s.logger.Debug("metadata stored", "id", id, "kind", metadata.Kind)
	return nil
}

// LoadMetadata returns the stored metadata for a resource. A resource
// with no metadata returns an error wrapping fs.ErrNotExist.
func (s *Storage) LoadMetadata(id resource.ID) (Metadata, error) {
	file, err := s.open(vault.MetadataPath(s.root, id))
	if err != nil {
		return Metadata{}, fmt.Errorf("opening metadata store for %s: %w", id, err)
	}

	snapshot, err := file.Load()
	if err != nil {
		return Metadata{}, fmt.Errorf("loading metadata for %s: %w", id, err)
	}
	raw, err := snapshot.ReadAll()
	if err != nil {
		return Metadata{}, fmt.Errorf("reading metadata for %s: %w", id, err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("decoding metadata for %s: %w", id, err)
	}
	return metadata, nil
}
