// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for memex packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls when waiting on watcher
// updates or shutdown channels.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need unique
// file names or contents that must hash to distinct resources.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no memex-internal dependencies.
package testutil
