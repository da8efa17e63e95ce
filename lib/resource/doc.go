// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package resource derives content-based identifiers for vault
// resources. A resource is a unit of content — typically a file —
// identified by its bytes rather than by its path, so renames, moves,
// and duplicates never lose identity.
//
// An identifier is the pair (size, digest). The digest algorithm is a
// capability selected at construction time: BLAKE3 for
// collision-resistant deployments, XXH64 where indexing speed matters
// more than adversarial collision resistance. Identifiers are
// comparable, totally ordered, and round-trip through a canonical
// text encoding.
package resource
