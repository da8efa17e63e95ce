// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// memex manages content-addressed resource vaults.
//
// Usage:
//
//	memex index [flags]
//	memex list [flags]
//	memex find <id>
//	memex watch [flags]
//	memex tag <add|rm|show> <id> [tags...]
//	memex score <id> [value]
//	memex props <get|set> <id> [json]
//	memex link <add|show> ...
//	memex describe <path>
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/memex-foundation/memex/lib/config"
	"github.com/memex-foundation/memex/lib/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if os.Getenv("MEMEX_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "index":
		err = indexCmd(args, cfg, logger)
	case "list":
		err = listCmd(args, cfg, logger)
	case "find":
		err = findCmd(args, cfg, logger)
	case "watch":
		err = watchCmd(args, cfg, logger)
	case "tag":
		err = tagCmd(args, cfg, logger)
	case "score":
		err = scoreCmd(args, cfg, logger)
	case "props":
		err = propsCmd(args, cfg, logger)
	case "link":
		err = linkCmd(args, cfg, logger)
	case "describe":
		err = describeCmd(args, cfg, logger)
	case "version", "--version", "-v":
		fmt.Printf("memex %s\n", version.Info())
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`memex - content-addressed resource vaults

USAGE
    memex <command> [flags] [args...]

COMMANDS
    index     Build or refresh the vault index
    list      List indexed resources
    find      Resolve a resource id to its path
    watch     Keep the index current while files change
    tag       Attach, detach or show tags
    score     Set or show a resource score
    props     Get or set resource properties
    link      Save or show bookmarked URLs
    describe  Generate metadata for a file
    version   Show version

EXAMPLES
    # Index the default vault
    memex index

    # Index a specific vault and show what changed
    memex index --vault ~/photos

    # Tag a resource
    memex tag add 1253-Ry9BX8JfHvx0Wk3Tq2YkNg books travel

    # Save a bookmark
    memex link add https://example.com/article --title "An Article"

ENVIRONMENT
    MEMEX_CONFIG  Path to the memex.yaml config file
    MEMEX_DEBUG   Enable debug logging
`)
}
