// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultRetention is how many version files survive a commit: the
// new version plus the nine before it. Old versions are kept at all
// so that a sync service propagating the directory mid-write never
// leaves a reader with zero complete versions.
const DefaultRetention = 10

// ErrStale is returned by CompareAndSwap when the caller's snapshot
// is no longer the latest version. It is the expected conflict
// signal, not a failure: reload, recompute, retry.
var ErrStale = errors.New("atomicfile: version is no longer the latest")

// AtomicFile is one logical mutable value stored as a hard-linked
// version chain inside a directory. The zero value is not usable;
// construct with New.
type AtomicFile struct {
	directory string
	prefix    string
	retention uint64
	logger    *slog.Logger
}

// New prepares the directory and derives this writer's file-name
// prefix from the directory name and the machine identity. The
// directory is created if absent.
func New(directory string) (*AtomicFile, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating atomic file directory: %w", err)
	}

	name := filepath.Base(filepath.Clean(directory))
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("atomic file path %q has no directory name", directory)
	}

	machine, err := machineID()
	if err != nil {
		return nil, fmt.Errorf("deriving writer identity: %w", err)
	}

	return &AtomicFile{
		directory: directory,
		prefix:    name + "_" + machine + ".",
		retention: DefaultRetention,
		logger:    slog.Default(),
	}, nil
}

// SetLogger replaces the logger used for ambiguity warnings. New
// installs slog.Default.
func (f *AtomicFile) SetLogger(logger *slog.Logger) { f.logger = logger }

// SetRetention overrides the number of version files kept by pruning.
func (f *AtomicFile) SetRetention(n uint64) { f.retention = n }

// Directory returns the backing directory path.
func (f *AtomicFile) Directory() string { return f.directory }

// ReadOnlyFile is an immutable snapshot of one committed version. It
// is both the way to read content and the precondition token for a
// subsequent CompareAndSwap. Version 0 means nothing has been
// committed yet.
type ReadOnlyFile struct {
	Version uint64
	Path    string
}

// Exists reports whether this snapshot refers to a committed version.
func (r ReadOnlyFile) Exists() bool { return r.Version != 0 }

// Open opens the version file for reading. Returns an error wrapping
// fs.ErrNotExist when no version has been committed.
func (r ReadOnlyFile) Open() (*os.File, error) {
	if !r.Exists() {
		return nil, fmt.Errorf("no committed version: %w", fs.ErrNotExist)
	}
	return os.Open(r.Path)
}

// ReadAll returns the full content of the version file.
func (r ReadOnlyFile) ReadAll() ([]byte, error) {
	file, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// parseVersion extracts the version number from a version file name.
// Scratch files (".tmp-..." from os.CreateTemp) and foreign files
// fail the parse and are ignored by scans.
func parseVersion(name string) (uint64, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return 0, false
	}
	version, err := strconv.ParseUint(name[dot+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return version, true
}

// Load scans the directory for version files from every writer and
// returns a snapshot of the highest version found. When independent
// machines have committed the same version number, this writer's own
// file wins if present; otherwise the lexicographically smallest
// file name is chosen deterministically and the ambiguity is logged.
func (f *AtomicFile) Load() (ReadOnlyFile, error) {
	latest, candidates, err := f.scan()
	if err != nil {
		return ReadOnlyFile{}, err
	}
	if latest == 0 {
		return ReadOnlyFile{}, nil
	}

	chosen := candidates[0]
	if len(candidates) > 1 {
		sort.Strings(candidates)
		chosen = candidates[0]
		for _, name := range candidates {
			if strings.HasPrefix(name, f.prefix) {
				chosen = name
				break
			}
		}
		f.logger.Warn("multiple writers committed the same version",
			"directory", f.directory,
			"version", latest,
			"candidates", len(candidates),
			"chosen", chosen)
	}

	return ReadOnlyFile{
		Version: latest,
		Path:    filepath.Join(f.directory, chosen),
	}, nil
}

// scan returns the highest version number in the directory and the
// file names carrying it.
func (f *AtomicFile) scan() (uint64, []string, error) {
	entries, err := os.ReadDir(f.directory)
	if err != nil {
		return 0, nil, fmt.Errorf("scanning %s: %w", f.directory, err)
	}

	var latest uint64
	var candidates []string
	for _, entry := range entries {
		version, ok := parseVersion(entry.Name())
		if !ok || version == 0 {
			continue
		}
		switch {
		case version > latest:
			latest = version
			candidates = candidates[:0]
			candidates = append(candidates, entry.Name())
		case version == latest:
			candidates = append(candidates, entry.Name())
		}
	}
	return latest, candidates, nil
}

// versionPath is the target name for one of this writer's versions.
func (f *AtomicFile) versionPath(version uint64) string {
	return filepath.Join(f.directory, f.prefix+strconv.FormatUint(version, 10))
}

// CompareAndSwap commits the scratch file as version current.Version+1
// if and only if current is still the latest version. On success it
// prunes versions more than the retention window behind the new one
// and returns how many files were removed.
//
// ErrStale means another writer committed first: reload and retry.
// Any other error is a real I/O failure for this attempt.
func (f *AtomicFile) CompareAndSwap(current ReadOnlyFile, tmp *TmpFile) (int, error) {
	// Make the proposed content durable before it can become visible
	// under a version name.
	if err := tmp.file.Sync(); err != nil {
		return 0, fmt.Errorf("syncing scratch file: %w", err)
	}

	latest, _, err := f.scan()
	if err != nil {
		return 0, err
	}
	if latest > current.Version {
		return 0, fmt.Errorf("version %d superseded by %d: %w", current.Version, latest, ErrStale)
	}

	newVersion := current.Version + 1
	if err := os.Link(tmp.path, f.versionPath(newVersion)); err != nil {
		// A failed link(2) may have actually landed on some network
		// filesystems. The scratch file's link count settles it: two
		// links means the version name now exists and points at our
		// data.
		if n, statErr := linkCount(tmp.path); statErr == nil && n == 2 {
			return f.prune(newVersion), nil
		}
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("version %d already committed by another writer: %w", newVersion, ErrStale)
		}
		return 0, fmt.Errorf("linking version %d: %w", newVersion, err)
	}

	return f.prune(newVersion), nil
}

// prune removes version files, from any writer, that have fallen more
// than the retention window behind version. Removal failures are
// ignored: another process may prune concurrently, and a leftover
// file costs only disk space until the next commit.
func (f *AtomicFile) prune(version uint64) int {
	entries, err := os.ReadDir(f.directory)
	if err != nil {
		return 0
	}

	pruned := 0
	for _, entry := range entries {
		v, ok := parseVersion(entry.Name())
		if !ok {
			continue
		}
		if v+f.retention <= version {
			if os.Remove(filepath.Join(f.directory, entry.Name())) == nil {
				pruned++
			}
		}
	}
	return pruned
}
