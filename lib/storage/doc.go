// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage persists what memex knows about resources beyond
// their raw bytes. Everything lives under the vault's reserved folder
// in two families: user data (tags, scores, properties, links) that
// syncs across devices and merges on conflict, and generated cache
// data (metadata, previews) that any device can rebuild and simply
// overwrites.
//
// Every store is a directory of versioned files managed by
// lib/atomicfile, so concurrent writers on different machines never
// corrupt or silently drop each other's values.
package storage
