// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestFile(t *testing.T) *AtomicFile {
	t.Helper()
	file, err := New(filepath.Join(t.TempDir(), "cell"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return file
}

// commitBytes writes content as the next version after current.
func commitBytes(t *testing.T, file *AtomicFile, current ReadOnlyFile, content []byte) {
	t.Helper()
	tmp, err := file.MakeTemp()
	if err != nil {
		t.Fatalf("MakeTemp failed: %v", err)
	}
	defer tmp.Release()
	if _, err := tmp.Write(content); err != nil {
		t.Fatalf("writing scratch: %v", err)
	}
	if _, err := file.CompareAndSwap(current, tmp); err != nil {
		t.Fatalf("CompareAndSwap failed: %v", err)
	}
}

func TestMachineIDStable(t *testing.T) {
	first, err := machineID()
	if err != nil {
		t.Fatalf("machineID failed: %v", err)
	}
	if first == "" {
		t.Fatal("machineID is empty")
	}
	second, _ := machineID()
	if first != second {
		t.Errorf("machineID not stable: %q then %q", first, second)
	}
}

func TestLoadEmptyDirectory(t *testing.T) {
	file := newTestFile(t)

	snapshot, err := file.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snapshot.Exists() {
		t.Errorf("empty directory reports version %d", snapshot.Version)
	}
	if _, err := snapshot.Open(); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open on version 0: err = %v, want fs.ErrNotExist", err)
	}
}

func TestCommitAndReadBack(t *testing.T) {
	file := newTestFile(t)

	first, _ := file.Load()
	commitBytes(t, file, first, []byte("version one"))

	snapshot, err := file.Load()
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Version != 1 {
		t.Errorf("Version = %d, want 1", snapshot.Version)
	}

	content, err := snapshot.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(content, []byte("version one")) {
		t.Errorf("content = %q", content)
	}

	commitBytes(t, file, snapshot, []byte("version two"))
	snapshot, _ = file.Load()
	if snapshot.Version != 2 {
		t.Errorf("Version = %d, want 2", snapshot.Version)
	}
}

func TestCompareAndSwapStale(t *testing.T) {
	file := newTestFile(t)

	initial, _ := file.Load()
	commitBytes(t, file, initial, []byte("winner"))

	// A second writer still holding the initial snapshot must lose.
	tmp, err := file.MakeTemp()
	if err != nil {
		t.Fatal(err)
	}
	defer tmp.Release()
	tmp.Write([]byte("loser"))

	_, err = file.CompareAndSwap(initial, tmp)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("CompareAndSwap with stale snapshot: err = %v, want ErrStale", err)
	}

	content, _ := readLatest(t, file)
	if !bytes.Equal(content, []byte("winner")) {
		t.Errorf("stale writer overwrote content: %q", content)
	}
}

func readLatest(t *testing.T, file *AtomicFile) ([]byte, uint64) {
	t.Helper()
	snapshot, err := file.Load()
	if err != nil {
		t.Fatal(err)
	}
	content, err := snapshot.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return content, snapshot.Version
}

func TestCompareAndSwapExclusivity(t *testing.T) {
	file := newTestFile(t)

	initial, _ := file.Load()
	commitBytes(t, file, initial, []byte("base"))
	base, _ := file.Load()

	const writers = 16
	var wg sync.WaitGroup
	results := make([]error, writers)

	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tmp, err := file.MakeTemp()
			if err != nil {
				results[i] = err
				return
			}
			defer tmp.Release()
			fmt.Fprintf(tmp, "writer %d", i)
			_, results[i] = file.CompareAndSwap(base, tmp)
		}()
	}
	wg.Wait()

	winners := 0
	for i, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrStale):
		default:
			t.Errorf("writer %d: unexpected error: %v", i, err)
		}
	}
	if winners != 1 {
		t.Errorf("%d writers won the race, want exactly 1", winners)
	}

	_, version := readLatest(t, file)
	if version != 2 {
		t.Errorf("version after race = %d, want 2", version)
	}
}

func TestPruneBound(t *testing.T) {
	for _, tc := range []struct {
		commits   int
		retention uint64
		want      int
	}{
		{commits: 3, retention: 10, want: 3},
		{commits: 10, retention: 10, want: 10},
		{commits: 25, retention: 10, want: 10},
		{commits: 7, retention: 2, want: 2},
	} {
		file := newTestFile(t)
		file.SetRetention(tc.retention)

		for i := 0; i < tc.commits; i++ {
			snapshot, err := file.Load()
			if err != nil {
				t.Fatal(err)
			}
			commitBytes(t, file, snapshot, fmt.Appendf(nil, "commit %d", i))
		}

		entries, err := os.ReadDir(file.Directory())
		if err != nil {
			t.Fatal(err)
		}
		versionFiles := 0
		for _, entry := range entries {
			if _, ok := parseVersion(entry.Name()); ok {
				versionFiles++
			}
		}
		if versionFiles != tc.want {
			t.Errorf("commits=%d retention=%d: %d version files on disk, want %d",
				tc.commits, tc.retention, versionFiles, tc.want)
		}
	}
}

func TestLoadTieBreakPrefersOwnPrefix(t *testing.T) {
	file := newTestFile(t)

	initial, _ := file.Load()
	commitBytes(t, file, initial, []byte("ours"))
	own, _ := file.Load()

	// Simulate another machine having committed the same version
	// number into the synced directory.
	foreign := filepath.Join(file.Directory(), "cell_aaaa-other-machine.1")
	if err := os.WriteFile(foreign, []byte("theirs"), 0o644); err != nil {
		t.Fatal(err)
	}

	snapshot, err := file.Load()
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Path != own.Path {
		t.Errorf("tie-break chose %s, want own file %s", snapshot.Path, own.Path)
	}

	content, _ := snapshot.ReadAll()
	if !bytes.Equal(content, []byte("ours")) {
		t.Errorf("tie-break content = %q, want ours", content)
	}
}

func TestScratchFileReleasedOnAbandon(t *testing.T) {
	file := newTestFile(t)

	tmp, err := file.MakeTemp()
	if err != nil {
		t.Fatal(err)
	}
	tmp.Write([]byte("abandoned"))
	path := tmp.path
	tmp.Release()

	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("scratch file still on disk after Release: %v", err)
	}

	// Release after a successful commit must not disturb the
	// committed version.
	tmp2, _ := file.MakeTemp()
	tmp2.Write([]byte("committed"))
	initial, _ := file.Load()
	if _, err := file.CompareAndSwap(initial, tmp2); err != nil {
		t.Fatal(err)
	}
	tmp2.Release()
	tmp2.Release() // double Release is safe

	content, _ := readLatest(t, file)
	if !bytes.Equal(content, []byte("committed")) {
		t.Errorf("content after scratch release = %q", content)
	}
}
