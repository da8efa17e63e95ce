// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides memex's standard CBOR encoding: Core
// Deterministic Encoding on the way out, lenient decoding on the way
// in. Cache records (preview entries and the like) are encoded
// through this package so identical logical data always produces
// identical bytes, which keeps content-addressed comparisons and
// cross-device diffs meaningful.
package codec
