// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !darwin && !linux

package atomicfile

import "errors"

// linkCount is unavailable off darwin/linux; CompareAndSwap then
// propagates the original link error unchanged.
func linkCount(path string) (uint64, error) {
	return 0, errors.New("link count inspection not supported on this platform")
}
