// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/memex-foundation/memex/lib/atomicfile"
	"github.com/memex-foundation/memex/lib/resource"
	"github.com/memex-foundation/memex/lib/vault"
)

// tagTable is the on-disk shape of the vault-wide tag store: resource
// identifier text to a sorted set of tags.
type tagTable map[string][]string

func (s *Storage) tagFile() (*atomicfile.AtomicFile, error) {
	file, err := s.open(vault.TagsPath(s.root))
	if err != nil {
		return nil, fmt.Errorf("opening tag store: %w", err)
	}
	return file, nil
}

// AddTags attaches tags to a resource. Tags are trimmed, deduplicated
// and kept sorted; attaching an existing tag is a no-op.
func (s *Storage) AddTags(id resource.ID, tags ...string) error {
	file, err := s.tagFile()
	if err != nil {
		return err
	}

	err = atomicfile.ModifyJSONN(file, s.maxAttempts, func(table *tagTable, exists bool) error {
		if *table == nil {
			*table = make(tagTable)
		}
		key := id.String()
		merged := (*table)[key]
		for _, tag := range tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if !slices.Contains(merged, tag) {
				merged = append(merged, tag)
			}
		}
		slices.Sort(merged)
		(*table)[key] = merged
		return nil
	})
	if err != nil {
		return fmt.Errorf("tagging %s: %w", id, err)
	}

	s.logger.Debug("tags added", "id", id, "tags", tags)
	return nil
}

// RemoveTags detaches tags from a resource. Unknown tags are ignored;
// a resource left with no tags disappears from the table.
func (s *Storage) RemoveTags(id resource.ID, tags ...string) error {
	file, err := s.tagFile()
	if err != nil {
		return err
	}

	err = atomicfile.ModifyJSONN(file, s.maxAttempts, func(table *tagTable, exists bool) error {
		if !exists {
			return nil
		}
		key := id.String()
		remaining := slices.DeleteFunc((*table)[key], func(tag string) bool {
			return slices.Contains(tags, tag)
		})
		if len(remaining) == 0 {
			delete(*table, key)
		} else {
			(*table)[key] = remaining
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("untagging %s: %w", id, err)
	}
	return nil
}

// Tags returns the sorted tags attached to a resource, empty when the
// resource is untagged or the store does not exist yet.
func (s *Storage) Tags(id resource.ID) ([]string, error) {
	table, err := s.AllTags()
	if err != nil {
		return nil, err
	}
	return table[id], nil
}

// AllTags returns the whole tag table keyed by resource identifier.
func (s *Storage) AllTags() (map[resource.ID][]string, error) {
	file, err := s.tagFile()
	if err != nil {
		return nil, err
	}

	var raw tagTable
	if err := readLatestJSON(file, &raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[resource.ID][]string{}, nil
		}
		return nil, fmt.Errorf("reading tag store: %w", err)
	}

	table := make(map[resource.ID][]string, len(raw))
	for key, tags := range raw {
		id, err := resource.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("tag store holds malformed id: %w", err)
		}
		table[id] = tags
	}
	return table, nil
}
