// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"time"

	"github.com/memex-foundation/memex/lib/resource"
)

// Entry is the indexed state of one file: its content identifier and
// the modification time observed when it was hashed. Times are
// truncated to millisecond precision so an entry survives a
// store/load round trip unchanged.
type Entry struct {
	Modified time.Time
	ID       resource.ID
}

// compare orders entries by (modified, id). Snapshots are written in
// this order so equal indexes serialize identically.
func (e Entry) compare(other Entry) int {
	if e.Modified.Before(other.Modified) {
		return -1
	}
	if e.Modified.After(other.Modified) {
		return 1
	}
	return e.ID.Compare(other.ID)
}

// Update is the difference produced by one index mutation: the
// identifiers that left the index and the paths (with their
// identifiers) that entered it. A moved file appears on both sides.
type Update struct {
	Deleted map[resource.ID]struct{}
	Added   map[string]resource.ID
}

func emptyUpdate() Update {
	return Update{
		Deleted: make(map[resource.ID]struct{}),
		Added:   make(map[string]resource.ID),
	}
}

func addedUpdate(path string, id resource.ID) Update {
	update := emptyUpdate()
	update.Added[path] = id
	return update
}

func deletedUpdate(id resource.ID) Update {
	update := emptyUpdate()
	update.Deleted[id] = struct{}{}
	return update
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return len(u.Deleted) == 0 && len(u.Added) == 0
}
