// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher feeds filesystem events under a vault root into the shared
// index as reactive tracking calls, keeping it current without full
// rescans. Applied changes are published on Updates.
type Watcher struct {
	handle  *Handle
	root    string
	inner   *fsnotify.Watcher
	logger  *slog.Logger
	updates chan Update
}

// NewWatcher starts watching the handle's vault root and every
// visible subdirectory. Call Run to process events and Close to stop
// watching.
func NewWatcher(handle *Handle, logger *slog.Logger) (*Watcher, error) {
	logger = ensureLogger(logger)

	var root string
	_ = handle.Read(func(ix *Index) error {
		root = ix.Root()
		return nil
	})

	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	w := &Watcher{
		handle:  handle,
		root:    root,
		inner:   inner,
		logger:  logger,
		updates: make(chan Update, 64),
	}
	if err := w.watchTree(root); err != nil {
		inner.Close()
		return nil, err
	}
	return w, nil
}

// Updates delivers every non-empty index change the watcher applies.
// Slow consumers lose updates rather than stalling event handling.
func (w *Watcher) Updates() <-chan Update { return w.updates }

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error { return w.inner.Close() }

// Run processes events until ctx is cancelled or the watcher is
// closed. On the way out the updates channel is closed and the index
// is stored back to its snapshot.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		close(w.updates)
		if err := w.handle.Write(func(ix *Index) error { return ix.Store() }); err != nil {
			w.logger.Error("storing index on watcher shutdown failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inner.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.inner.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("filesystem watcher error", "error", err)
		}
	}
}

// watchTree registers path and all visible directories beneath it.
func (w *Watcher) watchTree(path string) error {
	return filepath.WalkDir(path, func(sub string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && sub != path {
			return fs.SkipDir
		}
		if err := w.inner.Add(sub); err != nil {
			w.logger.Warn("watching directory failed", "path", sub, "error", err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}

	var (
		update Update
		err    error
	)
	switch {
	case event.Has(fsnotify.Create):
		update, err = w.handleCreate(path)
	case event.Has(fsnotify.Write):
		err = w.handle.Write(func(ix *Index) error {
			entry, indexed := ix.EntryAt(path)
			var trackErr error
			if indexed {
				update, trackErr = ix.TrackUpdate(path, entry.ID)
			} else {
				update, trackErr = ix.TrackAddition(path)
			}
			return trackErr
		})
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		err = w.handle.Write(func(ix *Index) error {
			entry, indexed := ix.EntryAt(path)
			if !indexed {
				return nil
			}
			if representative, _ := ix.PathOf(entry.ID); representative != path {
				// A duplicate vanished. TrackDeletion would forget the
				// representative, which still exists; drop only the
				// event path and keep the identifier alive.
				_, forgetErr := ix.forgetEntry(path, entry.ID)
				return forgetErr
			}
			var trackErr error
			update, trackErr = ix.TrackDeletion(entry.ID)
			return trackErr
		})
	default:
		return
	}

	if err != nil {
		// Transient states (a file mid-write, an empty placeholder)
		// resolve themselves through later events.
		w.logger.Debug("event not applied", "op", event.Op.String(), "path", path, "error", err)
		return
	}
	w.publish(update)
}

// handleCreate indexes a new file, or registers a new directory and
// indexes everything already inside it.
func (w *Watcher) handleCreate(path string) (Update, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return Update{}, err
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return Update{}, err
	}

	if !info.IsDir() {
		var update Update
		err := w.handle.Write(func(ix *Index) error {
			var trackErr error
			update, trackErr = ix.TrackAddition(canonical)
			return trackErr
		})
		return update, err
	}

	if err := w.watchTree(canonical); err != nil {
		return Update{}, err
	}

	// A directory moved into the vault arrives as one Create event;
	// pick up any files it already contains.
	merged := emptyUpdate()
	walkErr := filepath.WalkDir(canonical, func(sub string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		trackErr := w.handle.Write(func(ix *Index) error {
			update, err := ix.TrackAddition(sub)
			if err != nil {
				return err
			}
			for p, id := range update.Added {
				merged.Added[p] = id
			}
			return nil
		})
		if trackErr != nil {
			w.logger.Debug("skipping file in new directory", "path", sub, "error", trackErr)
		}
		return nil
	})
	return merged, walkErr
}

func (w *Watcher) publish(update Update) {
	if update.IsEmpty() {
		return
	}
	select {
	case w.updates <- update:
	default:
		w.logger.Warn("dropping index update, consumer too slow")
	}
}
