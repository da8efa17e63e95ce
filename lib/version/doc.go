// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the memex
// binary. Version information is injected at build time via -ldflags.
package version
