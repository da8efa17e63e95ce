// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"fmt"
	"os"

	"github.com/memex-foundation/memex/lib/resource"
)

// PathError reports a tracking call whose precondition did not hold
// for the given path.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("tracking %s: %s", e.Path, e.Reason)
}

// CollisionError reports collision bookkeeping that disagrees with
// the live entries. It indicates a bug in index maintenance, not a
// caller mistake.
type CollisionError struct {
	ID     resource.ID
	Reason string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("collision bookkeeping for %s: %s", e.ID, e.Reason)
}

// TrackAddition indexes a single file that appeared under the root.
// The caller asserts the index is current except for this path and
// that the path has not been indexed before; it is the reactive
// counterpart of a full rescan, driven by a filesystem watcher.
func (ix *Index) TrackAddition(path string) (Update, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return Update{}, &PathError{Path: path, Reason: "absent paths cannot be indexed"}
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return Update{}, &PathError{Path: path, Reason: "file metadata is unavailable"}
	}

	entry, err := ix.scanEntry(canonical, info)
	if err != nil {
		return Update{}, &PathError{Path: path, Reason: "path points to a directory or empty file"}
	}

	ix.logger.Debug("tracking addition", "path", canonical, "id", entry.ID)
	ix.insertEntry(canonical, entry)
	return addedUpdate(canonical, entry.ID), nil
}

// TrackDeletion drops a resource whose file is gone. The caller
// asserts the index is current except for this identifier and that
// the identifier was indexed. The identifier is always reported as
// deleted, even when duplicate paths survive in the collision count.
func (ix *Index) TrackDeletion(id resource.ID) (Update, error) {
	path, indexed := ix.idToPath[id]
	if !indexed {
		return Update{}, &PathError{Path: id.String(), Reason: "the id is not indexed"}
	}

	ix.logger.Debug("tracking deletion", "path", path, "id", id)
	if _, err := ix.forgetEntry(path, id); err != nil {
		return Update{}, err
	}
	return deletedUpdate(id), nil
}

// TrackUpdate rehashes a single file that was modified in place. The
// caller asserts the path was indexed and mapped to oldID. When the
// content actually changed the old identifier is reported deleted and
// the new one added; a touch that left the bytes alone produces an
// empty update.
func (ix *Index) TrackUpdate(path string, oldID resource.ID) (Update, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return Update{}, &PathError{Path: path, Reason: "absent paths cannot be tracked"}
	}

	currentEntry, indexed := ix.pathToEntry[canonical]
	if !indexed {
		return Update{}, &PathError{Path: path, Reason: "the path has not been indexed"}
	}
	if currentEntry.ID != oldID {
		return Update{}, &PathError{Path: path, Reason: "the path does not map to the id"}
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return Update{}, fmt.Errorf("tracking %s: %w", path, err)
	}

	newEntry, err := ix.scanEntry(canonical, info)
	if err != nil {
		return Update{}, fmt.Errorf("tracking %s: %w", path, err)
	}

	if currentEntry.ID == newEntry.ID {
		// The timestamp moved but the content digest did not.
		ix.logger.Warn("path modified without content change", "path", canonical)
		return emptyUpdate(), nil
	}

	ix.logger.Debug("tracking update",
		"path", canonical, "old_id", oldID, "new_id", newEntry.ID)
	if _, err := ix.forgetEntry(canonical, oldID); err != nil {
		return Update{}, err
	}
	ix.insertEntry(canonical, newEntry)

	update := deletedUpdate(oldID)
	update.Added[canonical] = newEntry.ID
	return update, nil
}
