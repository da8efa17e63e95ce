// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"fmt"
	"os"
)

// TmpFile is a scratch file holding a proposed version's content. It
// is created in the same directory as the version chain so that the
// commit hard-link never crosses a filesystem boundary. The creator
// owns it exclusively until a successful CompareAndSwap transfers the
// data to a version name; Release removes the scratch path itself in
// every case.
type TmpFile struct {
	file *os.File
	path string
}

// MakeTemp creates a scratch file with a randomized hidden name in
// the atomic file's directory. Always Release it, whether or not it
// is committed:
//
//	tmp, err := file.MakeTemp()
//	if err != nil { ... }
//	defer tmp.Release()
func (f *AtomicFile) MakeTemp() (*TmpFile, error) {
	file, err := os.CreateTemp(f.directory, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch file: %w", err)
	}
	return &TmpFile{file: file, path: file.Name()}, nil
}

// Write appends to the scratch content.
func (t *TmpFile) Write(p []byte) (int, error) { return t.file.Write(p) }

// Release closes the scratch file and removes its path. Safe to call
// after a successful commit: the committed version name holds its own
// hard link to the data, so removing the scratch name does not touch
// the committed content. Safe to call more than once.
func (t *TmpFile) Release() {
	if t.file != nil {
		t.file.Close()
		t.file = nil
		os.Remove(t.path)
	}
}
