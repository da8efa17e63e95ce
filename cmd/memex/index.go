// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/memex-foundation/memex/lib/config"
	"github.com/memex-foundation/memex/lib/index"
	"github.com/memex-foundation/memex/lib/resource"
)

// vaultFlags builds the flag set shared by every vault-scoped command:
// a --vault flag defaulting to the configured root.
func vaultFlags(name string, cfg *config.Config) (*pflag.FlagSet, *string) {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	vaultRoot := flagSet.String("vault", cfg.Vault.Root, "vault root directory")
	return flagSet, vaultRoot
}

// indexCmd builds or refreshes the vault index and reports what
// changed since the last snapshot.
func indexCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	flagSet, vaultRoot := vaultFlags("index", cfg)
	rebuild := flagSet.Bool("rebuild", false, "discard the snapshot and rescan everything")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	digest, err := cfg.Digest()
	if err != nil {
		return err
	}

	if *rebuild {
		ix, err := index.Build(*vaultRoot, digest, logger)
		if err != nil {
			return err
		}
		if err := ix.Store(); err != nil {
			return err
		}
		fmt.Printf("indexed %d resources\n", ix.Size())
		return nil
	}

	ix, err := index.Load(*vaultRoot, digest, logger)
	if err != nil {
		ix, err = index.Build(*vaultRoot, digest, logger)
		if err != nil {
			return err
		}
		if err := ix.Store(); err != nil {
			return err
		}
		fmt.Printf("indexed %d resources\n", ix.Size())
		return nil
	}

	update, err := ix.UpdateAll()
	if err != nil {
		return err
	}
	if err := ix.Store(); err != nil {
		return err
	}
	fmt.Printf("indexed %d resources (%d added, %d deleted)\n",
		ix.Size(), len(update.Added), len(update.Deleted))
	return nil
}

// listCmd prints every indexed resource, sorted by path.
func listCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	flagSet, vaultRoot := vaultFlags("list", cfg)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	digest, err := cfg.Digest()
	if err != nil {
		return err
	}
	ix, err := index.Provide(*vaultRoot, digest, logger)
	if err != nil {
		return err
	}

	entries := ix.Entries()
	paths := make([]string, 0, len(entries))
	for path := range entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, path := range paths {
		entry := entries[path]
		fmt.Fprintf(writer, "%s\t%s\t%s\n",
			entry.ID, entry.Modified.Format("2006-01-02 15:04:05"), path)
	}
	return writer.Flush()
}

// findCmd resolves a resource identifier to its representative path.
func findCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	flagSet, vaultRoot := vaultFlags("find", cfg)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("usage: memex find <id>")
	}
	id, err := resource.Parse(flagSet.Arg(0))
	if err != nil {
		return err
	}

	digest, err := cfg.Digest()
	if err != nil {
		return err
	}
	ix, err := index.Provide(*vaultRoot, digest, logger)
	if err != nil {
		return err
	}

	path, ok := ix.PathOf(id)
	if !ok {
		return fmt.Errorf("%s is not indexed", id)
	}
	fmt.Println(path)
	if duplicates := ix.CollisionCount(id); duplicates > 1 {
		fmt.Fprintf(os.Stderr, "note: %d paths hold this content\n", duplicates)
	}
	return nil
}

// watchCmd keeps the index current while the vault changes on disk,
// printing each tracked change, until interrupted.
func watchCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	flagSet, vaultRoot := vaultFlags("watch", cfg)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if !cfg.Watch.Enabled {
		return fmt.Errorf("watching is disabled in the configuration")
	}

	digest, err := cfg.Digest()
	if err != nil {
		return err
	}
	registry := index.NewRegistry(digest, logger)
	handle, err := registry.Acquire(*vaultRoot)
	if err != nil {
		return err
	}
	defer registry.Release(handle)

	watcher, err := index.NewWatcher(handle, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		for update := range watcher.Updates() {
			for id := range update.Deleted {
				fmt.Printf("- %s\n", id)
			}
			for path, id := range update.Added {
				fmt.Printf("+ %s %s\n", id, path)
			}
		}
	}()

	logger.Info("watching vault", "root", *vaultRoot)
	return watcher.Run(ctx)
}
