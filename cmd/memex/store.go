// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/memex-foundation/memex/lib/config"
	"github.com/memex-foundation/memex/lib/resource"
	"github.com/memex-foundation/memex/lib/storage"
)

// openStorage wires the configured digest and versioning policy into
// a storage handle for the given vault.
func openStorage(vaultRoot string, cfg *config.Config, logger *slog.Logger) (*storage.Storage, error) {
	digest, err := cfg.Digest()
	if err != nil {
		return nil, err
	}
	store := storage.New(vaultRoot, digest, logger)
	store.SetVersioning(cfg.Versioning.Retention, cfg.Versioning.MaxAttempts)
	if cfg.Previews.Compression != "" && cfg.Previews.Compression != "auto" {
		compression, err := storage.ParseCompression(cfg.Previews.Compression)
		if err != nil {
			return nil, err
		}
		store.SetCompression(compression)
	}
	return store, nil
}

// tagCmd attaches, detaches or shows tags.
//
//	memex tag add <id> <tags...>
//	memex tag rm <id> <tags...>
//	memex tag show [id]
func tagCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	flagSet, vaultRoot := vaultFlags("tag", cfg)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: memex tag <add|rm|show> ...")
	}

	store, err := openStorage(*vaultRoot, cfg, logger)
	if err != nil {
		return err
	}

	switch rest[0] {
	case "add", "rm":
		if len(rest) < 3 {
			return fmt.Errorf("usage: memex tag %s <id> <tags...>", rest[0])
		}
		id, err := resource.Parse(rest[1])
		if err != nil {
			return err
		}
		if rest[0] == "add" {
			return store.AddTags(id, rest[2:]...)
		}
		return store.RemoveTags(id, rest[2:]...)

	case "show":
		if len(rest) == 2 {
			id, err := resource.Parse(rest[1])
			if err != nil {
				return err
			}
			tags, err := store.Tags(id)
			if err != nil {
				return err
			}
			for _, tag := range tags {
				fmt.Println(tag)
			}
			return nil
		}
		table, err := store.AllTags()
		if err != nil {
			return err
		}
		lines := make([]string, 0, len(table))
		for id, tags := range table {
			line := id.String()
			for _, tag := range tags {
				line += " " + tag
			}
			lines = append(lines, line)
		}
		sort.Strings(lines)
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil

	default:
		return fmt.Errorf("unknown tag action: %s", rest[0])
	}
}

// scoreCmd shows a resource's score, or sets it when a value follows
// the identifier. Setting zero clears the score.
func scoreCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	flagSet, vaultRoot := vaultFlags("score", cfg)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	rest := flagSet.Args()
	if len(rest) < 1 || len(rest) > 2 {
		return fmt.Errorf("usage: memex score <id> [value]")
	}
	id, err := resource.Parse(rest[0])
	if err != nil {
		return err
	}

	store, err := openStorage(*vaultRoot, cfg, logger)
	if err != nil {
		return err
	}

	if len(rest) == 2 {
		score, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("score must be an integer: %w", err)
		}
		return store.SetScore(id, score)
	}

	score, err := store.Score(id)
	if err != nil {
		return err
	}
	fmt.Println(score)
	return nil
}

// propsCmd reads or merges a resource's property document.
//
//	memex props get <id>
//	memex props set <id> <json>
func propsCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	flagSet, vaultRoot := vaultFlags("props", cfg)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	rest := flagSet.Args()
	if len(rest) < 2 {
		return fmt.Errorf("usage: memex props <get|set> <id> [json]")
	}
	id, err := resource.Parse(rest[1])
	if err != nil {
		return err
	}

	store, err := openStorage(*vaultRoot, cfg, logger)
	if err != nil {
		return err
	}

	switch rest[0] {
	case "get":
		raw, err := store.LoadRawProperties(id)
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil

	case "set":
		if len(rest) != 3 {
			return fmt.Errorf("usage: memex props set <id> <json>")
		}
		var properties any
		if err := json.Unmarshal([]byte(rest[2]), &properties); err != nil {
			return fmt.Errorf("parsing properties: %w", err)
		}
		return store.StoreProperties(id, properties)

	default:
		return fmt.Errorf("unknown props action: %s", rest[0])
	}
}

// linkCmd saves or shows bookmarked URLs.
//
//	memex link add <url> [--title t] [--desc d]
//	memex link show <id>
func linkCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	flagSet, vaultRoot := vaultFlags("link", cfg)
	title := flagSet.String("title", "", "link title")
	description := flagSet.String("desc", "", "link description")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	rest := flagSet.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: memex link <add|show> ...")
	}

	store, err := openStorage(*vaultRoot, cfg, logger)
	if err != nil {
		return err
	}

	switch rest[0] {
	case "add":
		id, err := store.SaveLink(storage.Link{
			URL:         rest[1],
			Title:       *title,
			Description: *description,
		})
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil

	case "show":
		id, err := resource.Parse(rest[1])
		if err != nil {
			return err
		}
		link, err := store.LoadLink(id)
		if err != nil {
			return err
		}
		fmt.Println(link.URL)
		if link.Title != "" {
			fmt.Println(link.Title)
		}
		if link.Description != "" {
			fmt.Println(link.Description)
		}
		return nil

	default:
		return fmt.Errorf("unknown link action: %s", rest[0])
	}
}

// describeCmd hashes a file, generates its metadata and stores it in
// the vault's cache.
func describeCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	flagSet, vaultRoot := vaultFlags("describe", cfg)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("usage: memex describe <path>")
	}
	path := flagSet.Arg(0)

	digest, err := cfg.Digest()
	if err != nil {
		return err
	}
	id, err := resource.ComputeFile(digest, path)
	if err != nil {
		return err
	}
	metadata, err := storage.Describe(path, id)
	if err != nil {
		return err
	}

	store, err := openStorage(*vaultRoot, cfg, logger)
	if err != nil {
		return err
	}
	if err := store.StoreMetadata(id, metadata); err != nil {
		return err
	}
	fmt.Printf("%s %s (%s)\n", id, metadata.Name, metadata.Kind)
	return nil
}
