// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/memex-foundation/memex/lib/atomicfile"
	"github.com/memex-foundation/memex/lib/resource"
	"github.com/memex-foundation/memex/lib/vault"
)

// Link is a bookmarked URL with its user-facing description. The
// URL's bytes are the link's content, so its identifier is stable
// across devices and the title and description travel as properties.
type Link struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// linkProperties is the property document a saved link contributes.
type linkProperties struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// SaveLink stores a link and returns its identifier, computed from
// the URL bytes. Saving the same URL again updates the description
// properties under the same identifier.
func (s *Storage) SaveLink(link Link) (resource.ID, error) {
	parsed, err := url.Parse(strings.TrimSpace(link.URL))
	if err != nil {
		return resource.ID{}, fmt.Errorf("parsing link url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return resource.ID{}, fmt.Errorf("link url %q is not absolute", link.URL)
	}
	normalized := parsed.String()

	id, err := resource.ComputeBytes(s.digest, []byte(normalized))
	if err != nil {
		return resource.ID{}, fmt.Errorf("computing link id: %w", err)
	}

	file, err := s.open(vault.LinkPath(s.root, id))
	if err != nil {
		return resource.ID{}, fmt.Errorf("opening link store for %s: %w", id, err)
	}
	err = atomicfile.ModifyN(file, s.maxAttempts, func([]byte) ([]byte, error) {
		return []byte(normalized), nil
	})
	if err != nil {
		return resource.ID{}, fmt.Errorf("storing link %s: %w", id, err)
	}

	properties := linkProperties{Title: link.Title, Description: link.Description}
	if err := s.StoreProperties(id, properties); err != nil {
		return resource.ID{}, err
	}

	s.logger.Debug("link saved", "id", id, "url", normalized)
	return id, nil
}

// LoadLink returns a stored link. The title and description come from
// the resource's properties; a link saved without them loads with
// empty fields. When a property was written differently on several
// devices and merged into an array, the first value wins here.
func (s *Storage) LoadLink(id resource.ID) (Link, error) {
	file, err := s.open(vault.LinkPath(s.root, id))
	if err != nil {
		return Link{}, fmt.Errorf("opening link store for %s: %w", id, err)
	}
	snapshot, err := file.Load()
	if err != nil {
		return Link{}, fmt.Errorf("loading link %s: %w", id, err)
	}
	rawURL, err := snapshot.ReadAll()
	if err != nil {
		return Link{}, fmt.Errorf("reading link %s: %w", id, err)
	}

	link := Link{URL: string(rawURL)}

	properties, err := s.LoadProperties(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return link, nil
		}
		return Link{}, err
	}
	link.Title = firstString(properties["title"])
	link.Description = firstString(properties["description"])
	return link, nil
}

// firstString extracts a string from a merged property value, which
// may have been promoted to an array by a cross-device conflict.
func firstString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case []any:
		for _, element := range typed {
			if text, ok := element.(string); ok {
				return text
			}
		}
	}
	return ""
}
