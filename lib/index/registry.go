// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/memex-foundation/memex/lib/resource"
)

// Handle wraps an Index for shared use. Several subsystems (storage,
// watcher, CLI commands) hold the same vault open at once; the handle
// serializes their access so the underlying maps never race.
type Handle struct {
	mu    sync.RWMutex
	index *Index
}

// Read runs fn with shared read access to the index. fn must not
// mutate the index or retain it past the call.
func (h *Handle) Read(fn func(*Index) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.index)
}

// Write runs fn with exclusive access to the index. fn must not
// retain the index past the call.
func (h *Handle) Write(fn func(*Index) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.index)
}

// Registry hands out shared index handles keyed by canonical vault
// root, so two spellings of the same directory resolve to one index.
// Handles are reference counted: each Acquire must be paired with a
// Release, and the last Release stores the index snapshot and drops
// it from the registry.
type Registry struct {
	digest resource.Digest
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	handle *Handle
	refs   int
}

// NewRegistry returns an empty registry. Indexes it creates use the
// given digest; a nil logger silences them.
func NewRegistry(digest resource.Digest, logger *slog.Logger) *Registry {
	return &Registry{
		digest:  digest,
		logger:  ensureLogger(logger),
		entries: make(map[string]*registryEntry),
	}
}

// Acquire returns the shared handle for a vault root, creating its
// index via Provide on first use.
func (r *Registry) Acquire(root string) (*Handle, error) {
	canonical, err := canonicalize(root)
	if err != nil {
		return nil, fmt.Errorf("resolving vault root %s: %w", root, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[canonical]; ok {
		entry.refs++
		return entry.handle, nil
	}

	index, err := Provide(canonical, r.digest, r.logger)
	if err != nil {
		return nil, err
	}

	handle := &Handle{index: index}
	r.entries[canonical] = &registryEntry{handle: handle, refs: 1}
	return handle, nil
}

// Release returns a handle obtained from Acquire. The last release of
// a root stores the index snapshot before dropping the handle; the
// store error is returned so a failed persist is not silent.
func (r *Registry) Release(handle *Handle) error {
	var root string
	_ = handle.Read(func(ix *Index) error {
		root = ix.Root()
		return nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[root]
	if !ok || entry.handle != handle {
		return fmt.Errorf("releasing unacquired handle for %s", root)
	}

	entry.refs--
	if entry.refs > 0 {
		return nil
	}
	delete(r.entries, root)
	return handle.Write(func(ix *Index) error {
		return ix.Store()
	})
}
