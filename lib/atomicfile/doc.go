// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile provides a compare-and-swap persistence cell
// built on filesystem hard-link semantics. A logical value lives in a
// directory as an append-only chain of version files named
// {directory-name}_{machine-id}.{version}; committing a new version
// hard-links a scratch file to the next version name, which the
// filesystem performs atomically. Writers that lose the race observe
// ErrStale, reload, and retry — no lock service is involved, and
// independent machines writing into a shared synced directory never
// collide on file names because each carries its own machine
// identity in the prefix.
//
// The Modify and ModifyJSON helpers wrap the load → transform →
// commit loop with bounded retries.
package atomicfile
