// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now()
// when tests need unique file names or contents that must hash to
// distinct resource identifiers.
//
//	name := testutil.UniqueID("file")      // "file-1", "file-2", ...
//	body := testutil.UniqueID("content")   // "content-3", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
