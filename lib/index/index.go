// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"bufio"
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
	"time"

	"github.com/memex-foundation/memex/lib/resource"
	"github.com/memex-foundation/memex/lib/vault"
)

// updatedThreshold is the smallest modification-time advance treated
// as a content change during rescans. Snapshot timestamps carry
// millisecond precision, so differences below it are invisible.
const updatedThreshold = time.Millisecond

// Index maps paths under one vault root to the identifiers of their
// content, and identifiers back to a representative path. It is not
// safe for concurrent use; see Handle for the shared, locked form.
type Index struct {
	root   string
	digest resource.Digest
	logger *slog.Logger

	pathToEntry map[string]Entry
	idToPath    map[resource.ID]string
	collisions  map[resource.ID]int
}

func newIndex(root string, digest resource.Digest, logger *slog.Logger) *Index {
	return &Index{
		root:        root,
		digest:      digest,
		logger:      logger,
		pathToEntry: make(map[string]Entry),
		idToPath:    make(map[resource.ID]string),
		collisions:  make(map[resource.ID]int),
	}
}

func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

// canonicalize resolves path to an absolute, symlink-free form so the
// same file always hashes to the same map key.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Build walks the vault root and indexes every visible, non-empty
// file. A nil logger silences the index.
func Build(root string, digest resource.Digest, logger *slog.Logger) (*Index, error) {
	logger = ensureLogger(logger)

	canonical, err := canonicalize(root)
	if err != nil {
		return nil, fmt.Errorf("resolving vault root %s: %w", root, err)
	}
	logger.Info("building index from scratch", "root", canonical)

	index := newIndex(canonical, digest, logger)
	for path, info := range index.discover() {
		entry, err := index.scanEntry(path, info)
		if err != nil {
			logger.Warn("skipping unreadable resource", "path", path, "error", err)
			continue
		}
		index.insertEntry(path, entry)
	}

	logger.Info("index built", "entries", len(index.pathToEntry))
	return index, nil
}

// Load reads the persisted snapshot under root's reserved folder.
// Entries whose file no longer exists are dropped with a warning; the
// following rescan will report them as deleted. A malformed snapshot
// line fails the whole load.
func Load(root string, digest resource.Digest, logger *slog.Logger) (*Index, error) {
	logger = ensureLogger(logger)

	canonical, err := canonicalize(root)
	if err != nil {
		return nil, fmt.Errorf("resolving vault root %s: %w", root, err)
	}

	snapshotPath := vault.IndexPath(canonical)
	file, err := os.Open(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("opening index snapshot: %w", err)
	}
	defer file.Close()
	logger.Info("loading index", "snapshot", snapshotPath)

	index := newIndex(canonical, digest, logger)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if line == "" {
			continue
		}

		timestampField, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("index snapshot line %d: missing fields", lineNumber)
		}
		idField, relPath, ok := strings.Cut(rest, " ")
		if !ok {
			return nil, fmt.Errorf("index snapshot line %d: missing path", lineNumber)
		}

		millis, err := strconv.ParseInt(timestampField, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("index snapshot line %d: bad timestamp: %w", lineNumber, err)
		}
		id, err := resource.Parse(idField)
		if err != nil {
			return nil, fmt.Errorf("index snapshot line %d: %w", lineNumber, err)
		}

		path, err := canonicalize(filepath.Join(canonical, relPath))
		if err != nil {
			logger.Warn("indexed file not found", "path", relPath)
			continue
		}

		index.insertEntry(path, Entry{
			Modified: time.UnixMilli(millis),
			ID:       id,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index snapshot: %w", err)
	}

	return index, nil
}

// Store persists the index as a snapshot under the reserved folder.
// The snapshot is written to a scratch file and renamed into place so
// readers never observe a half-written index.
func (ix *Index) Store() error {
	snapshotPath := vault.IndexPath(ix.root)
	if err := os.MkdirAll(filepath.Dir(snapshotPath), 0o755); err != nil {
		return fmt.Errorf("creating reserved folder: %w", err)
	}

	type line struct {
		path  string
		entry Entry
	}
	lines := make([]line, 0, len(ix.pathToEntry))
	for path, entry := range ix.pathToEntry {
		lines = append(lines, line{path: path, entry: entry})
	}
	sort.Slice(lines, func(i, j int) bool {
		if c := lines[i].entry.compare(lines[j].entry); c != 0 {
			return c < 0
		}
		return lines[i].path < lines[j].path
	})

	tmp, err := os.CreateTemp(filepath.Dir(snapshotPath), ".index-*")
	if err != nil {
		return fmt.Errorf("creating scratch snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := bufio.NewWriter(tmp)
	for _, l := range lines {
		relPath, err := filepath.Rel(ix.root, l.path)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("relativizing %s: %w", l.path, err)
		}
		fmt.Fprintf(writer, "%d %s %s\n", l.entry.Modified.UnixMilli(), l.entry.ID, relPath)
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing index snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing index snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), snapshotPath); err != nil {
		return fmt.Errorf("publishing index snapshot: %w", err)
	}
	ix.logger.Debug("index stored", "entries", len(lines), "snapshot", snapshotPath)
	return nil
}

// Provide returns a ready index for root: the persisted snapshot
// refreshed by a rescan when one exists, a fresh build otherwise. The
// refreshed index is stored back before returning.
func Provide(root string, digest resource.Digest, logger *slog.Logger) (*Index, error) {
	logger = ensureLogger(logger)

	index, err := Load(root, digest, logger)
	if err != nil {
		logger.Warn("index snapshot unavailable, rebuilding", "error", err)
		return Build(root, digest, logger)
	}

	update, err := index.UpdateAll()
	if err != nil {
		logger.Error("index refresh failed", "error", err)
	} else {
		logger.Debug("index refreshed",
			"added", len(update.Added), "deleted", len(update.Deleted))
	}

	if err := index.Store(); err != nil {
		logger.Error("storing refreshed index failed", "error", err)
	}
	return index, nil
}

// UpdateAll rescans the root and reconciles the index with what is on
// disk. A file whose modification time advanced by at least one
// millisecond is rehashed and reported as a deletion of its old
// identifier plus an addition of the new one. Fresh files whose
// identifier is already indexed are recorded as duplicates but not
// reported as added.
func (ix *Index) UpdateAll() (Update, error) {
	current := ix.discover()

	preserved := make(map[string]struct{}, len(current))
	for path := range current {
		if _, known := ix.pathToEntry[path]; known {
			preserved[path] = struct{}{}
		}
	}

	var createdPaths, updatedPaths []string
	for path, info := range current {
		if _, kept := preserved[path]; !kept {
			createdPaths = append(createdPaths, path)
			continue
		}
		elapsed := info.ModTime().Sub(ix.pathToEntry[path].Modified)
		if elapsed >= updatedThreshold {
			ix.logger.Debug("resource modified", "path", path, "elapsed", elapsed)
			updatedPaths = append(updatedPaths, path)
		}
	}

	// Both vanished and modified paths leave the index first; a
	// modified file re-enters below under its new identifier.
	update := emptyUpdate()
	removing := append([]string(nil), updatedPaths...)
	for path := range ix.pathToEntry {
		if _, kept := preserved[path]; !kept {
			removing = append(removing, path)
		}
	}
	for _, path := range removing {
		entry, known := ix.pathToEntry[path]
		if !known {
			ix.logger.Warn("path was not indexed", "path", path)
			continue
		}
		gone, err := ix.forgetEntry(path, entry.ID)
		if err != nil {
			return update, err
		}
		if gone {
			ix.logger.Debug("resource deleted", "id", entry.ID, "path", path)
			update.Deleted[entry.ID] = struct{}{}
		}
	}

	for _, path := range append(updatedPaths, createdPaths...) {
		info, ok := current[path]
		if !ok {
			continue
		}
		entry, err := ix.scanEntry(path, info)
		if err != nil {
			ix.logger.Warn("skipping unreadable resource", "path", path, "error", err)
			continue
		}
		if _, indexed := ix.idToPath[entry.ID]; indexed {
			// Duplicate content: count the collision, don't re-announce
			// the identifier.
			ix.insertEntry(path, entry)
			continue
		}
		if _, wasDeleted := update.Deleted[entry.ID]; wasDeleted {
			// The identifier left one path and re-entered at another:
			// the resource moved, and both sides stay in the update.
			ix.logger.Debug("resource moved", "id", entry.ID, "path", path)
		}
		ix.insertEntry(path, entry)
		update.Added[path] = entry.ID
	}

	return update, nil
}

// Size returns the number of indexed paths. In the presence of
// collisions this exceeds the number of distinct identifiers.
func (ix *Index) Size() int { return len(ix.pathToEntry) }

// Root returns the canonical vault root the index covers.
func (ix *Index) Root() string { return ix.root }

// PathOf returns the representative path currently holding id.
func (ix *Index) PathOf(id resource.ID) (string, bool) {
	path, ok := ix.idToPath[id]
	return path, ok
}

// EntryAt returns the indexed entry for a canonical path.
func (ix *Index) EntryAt(path string) (Entry, bool) {
	entry, ok := ix.pathToEntry[path]
	return entry, ok
}

// CollisionCount returns how many indexed paths hold id's content:
// zero when the id is unknown, one for a unique resource, two or more
// for duplicates.
func (ix *Index) CollisionCount(id resource.ID) int {
	if count, ok := ix.collisions[id]; ok {
		return count
	}
	if _, ok := ix.idToPath[id]; ok {
		return 1
	}
	return 0
}

// Entries returns a copy of the full path-to-entry table.
func (ix *Index) Entries() map[string]Entry {
	entries := make(map[string]Entry, len(ix.pathToEntry))
	for path, entry := range ix.pathToEntry {
		entries[path] = entry
	}
	return entries
}

// IDs returns every distinct indexed identifier.
func (ix *Index) IDs() []resource.ID {
	ids := make([]resource.ID, 0, len(ix.idToPath))
	for id := range ix.idToPath {
		ids = append(ids, id)
	}
	return ids
}

// discover walks the root and returns every visible file with its
// stat info. Hidden files and directories (dot-prefixed, including
// the reserved folder) are skipped, as is anything unreadable.
func (ix *Index) discover() map[string]fs.FileInfo {
	found := make(map[string]fs.FileInfo)
	err := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ix.logger.Warn("walk error", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		hidden := strings.HasPrefix(d.Name(), ".")
		if d.IsDir() {
			if hidden && path != ix.root {
				return fs.SkipDir
			}
			return nil
		}
		if hidden || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			ix.logger.Warn("stat failed during walk", "path", path, "error", err)
			return nil
		}
		found[path] = info
		return nil
	})
	if err != nil {
		ix.logger.Error("walking vault root failed", "root", ix.root, "error", err)
	}
	return found
}

var errEmptyResource = errors.New("resource cannot be empty")

// scanEntry hashes the file at path into an index entry. Directories
// and empty files are not resources.
func (ix *Index) scanEntry(path string, info fs.FileInfo) (Entry, error) {
	if info.IsDir() {
		return Entry{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return Entry{}, errEmptyResource
	}

	file, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer file.Close()

	id, err := resource.Compute(ix.digest, uint64(info.Size()), file)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Modified: info.ModTime().Truncate(time.Millisecond),
		ID:       id,
	}, nil
}

// insertEntry records path as holding entry's identifier. A second
// path with an already-indexed identifier starts a collision count at
// two; further paths increment it. The representative path for a
// collided identifier is whichever was inserted first.
func (ix *Index) insertEntry(path string, entry Entry) {
	if _, taken := ix.idToPath[entry.ID]; !taken {
		ix.idToPath[entry.ID] = path
	} else if count, colliding := ix.collisions[entry.ID]; colliding {
		ix.collisions[entry.ID] = count + 1
	} else {
		ix.collisions[entry.ID] = 2
	}
	ix.pathToEntry[path] = entry
}

// forgetEntry removes path from the index and reports whether id left
// the index entirely. When duplicates remain the collision count
// drops instead, and the representative path is retargeted to one of
// the surviving duplicates if the removed path held that role. A path
// whose live entry disagrees with id means the bookkeeping itself is
// broken; that is surfaced, never patched over.
func (ix *Index) forgetEntry(path string, id resource.ID) (bool, error) {
	if entry, known := ix.pathToEntry[path]; known && entry.ID != id {
		return false, &CollisionError{
			ID:     id,
			Reason: fmt.Sprintf("path %s is recorded under %s", path, entry.ID),
		}
	}
	delete(ix.pathToEntry, path)

	count, colliding := ix.collisions[id]
	if !colliding {
		delete(ix.idToPath, id)
		return true, nil
	}

	if count <= 2 {
		delete(ix.collisions, id)
	} else {
		ix.collisions[id] = count - 1
	}

	if ix.idToPath[id] == path {
		retargeted := false
		for survivor, entry := range ix.pathToEntry {
			if entry.ID == id {
				ix.idToPath[id] = survivor
				retargeted = true
				break
			}
		}
		if !retargeted {
			delete(ix.idToPath, id)
			return true, &CollisionError{
				ID:     id,
				Reason: "no surviving duplicate path to retarget to",
			}
		}
	}
	return false, nil
}
