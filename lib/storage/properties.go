// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/memex-foundation/memex/lib/atomicfile"
	"github.com/memex-foundation/memex/lib/jsonmerge"
	"github.com/memex-foundation/memex/lib/resource"
	"github.com/memex-foundation/memex/lib/vault"
)

// StoreProperties records user-defined properties for a resource.
// Properties already on disk are never discarded: the new document is
// merged with the current one field by field, unioning arrays and
// promoting conflicting scalars to arrays. properties may be any
// JSON-serializable value, typically a map or a struct.
func (s *Storage) StoreProperties(id resource.ID, properties any) error {
	incoming, err := normalizeJSON(properties)
	if err != nil {
		return fmt.Errorf("encoding properties for %s: %w", id, err)
	}

	file, err := s.open(vault.PropertiesPath(s.root, id))
	if err != nil {
		return fmt.Errorf("opening properties store for %s: %w", id, err)
	}

	err = atomicfile.ModifyN(file, s.maxAttempts, func(current []byte) ([]byte, error) {
		if len(current) == 0 {
			return json.Marshal(incoming)
		}
		var existing any
		if err := json.Unmarshal(current, &existing); err != nil {
			return nil, fmt.Errorf("decoding stored properties: %w", err)
		}
		return json.Marshal(jsonmerge.Merge(existing, incoming))
	})
	if err != nil {
		return fmt.Errorf("storing properties for %s: %w", id, err)
	}

	s.logger.Debug("properties stored", "id", id)
	return nil
}

// LoadProperties returns the merged property document for a resource.
// A resource with no stored properties returns an error wrapping
// fs.ErrNotExist.
func (s *Storage) LoadProperties(id resource.ID) (map[string]any, error) {
	raw, err := s.LoadRawProperties(id)
	if err != nil {
		return nil, err
	}

	var properties map[string]any
	if err := json.Unmarshal(raw, &properties); err != nil {
		return nil, fmt.Errorf("decoding properties for %s: %w", id, err)
	}
	return properties, nil
}

// LoadRawProperties returns the stored property document as raw JSON
// bytes, for callers that decode into their own types.
func (s *Storage) LoadRawProperties(id resource.ID) ([]byte, error) {
	file, err := s.open(vault.PropertiesPath(s.root, id))
	if err != nil {
		return nil, fmt.Errorf("opening properties store for %s: %w", id, err)
	}

	snapshot, err := file.Load()
	if err != nil {
		return nil, fmt.Errorf("loading properties for %s: %w", id, err)
	}
	raw, err := snapshot.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading properties for %s: %w", id, err)
	}
	return raw, nil
}

// normalizeJSON round-trips a value through encoding/json so struct
// inputs become the generic maps the merge operates on.
func normalizeJSON(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}
