// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for memex.
//
// Configuration is loaded from a single file specified by either the
// MEMEX_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- vault, versioning and preview settings
//   - [Default] -- returns a Config with working defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other memex packages except lib/resource
// (to validate the digest name).
package config
