// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package atomicfile

import (
	"fmt"
	"os"
	"syscall"
)

// linkCount returns the hard-link count of the file at path. Used by
// CompareAndSwap to detect a link(2) that reported failure but
// actually created the target name.
func linkCount(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("no stat information for %s", path)
	}
	return uint64(stat.Nlink), nil
}
