// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package index maintains the content-addressed view of a vault: a
// bidirectional mapping between file paths under the vault root and
// the identifiers of their content. The index is built by walking the
// root, persisted as a line-oriented snapshot under the reserved
// folder, and kept current either by full rescans (UpdateAll) or by
// single-event tracking calls driven by a filesystem watcher.
//
// Identifiers collide when two files hold identical bytes. The index
// keeps one representative path per identifier and counts the
// remaining duplicates, so removing one copy of a duplicated file
// never makes the identifier disappear.
package index
