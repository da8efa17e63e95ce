// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault defines the on-disk layout of the reserved .memex
// folder inside a vault root. User data (tags, scores, properties,
// links) must never be lost and is synced across devices; cache data
// (metadata, previews) is regenerable per device. Everything under
// .memex is hidden from the resource index, which skips hidden
// entries during walks.
package vault

import (
	"path/filepath"

	"github.com/memex-foundation/memex/lib/resource"
)

// Folder is the reserved directory name under the vault root.
const Folder = ".memex"

// IndexFile is the persisted resource-index snapshot.
const IndexFile = "index"

// User data folders, synced and merged across devices.
const (
	TagsFile         = "user/tags"
	ScoresFile       = "user/scores"
	PropertiesFolder = "user/properties"
	LinksFolder      = "user/links"
)

// Generated cache folders, rebuilt on demand per device.
const (
	MetadataFolder = "cache/metadata"
	PreviewsFolder = "cache/previews"
)

// Root returns the reserved folder path for a vault root.
func Root(root string) string {
	return filepath.Join(root, Folder)
}

// IndexPath returns the index snapshot location.
func IndexPath(root string) string {
	return filepath.Join(root, Folder, IndexFile)
}

// TagsPath returns the vault-wide tag store directory.
func TagsPath(root string) string {
	return filepath.Join(root, Folder, TagsFile)
}

// ScoresPath returns the vault-wide score store directory.
func ScoresPath(root string) string {
	return filepath.Join(root, Folder, ScoresFile)
}

// PropertiesPath returns the per-resource properties directory for id.
func PropertiesPath(root string, id resource.ID) string {
	return filepath.Join(root, Folder, PropertiesFolder, id.String())
}

// LinkPath returns the per-resource link directory for id.
func LinkPath(root string, id resource.ID) string {
	return filepath.Join(root, Folder, LinksFolder, id.String())
}

// MetadataPath returns the per-resource generated-metadata directory
// for id.
func MetadataPath(root string, id resource.ID) string {
	return filepath.Join(root, Folder, MetadataFolder, id.String())
}

// PreviewPath returns the per-resource preview cache directory for id.
func PreviewPath(root string, id resource.ID) string {
	return filepath.Join(root, Folder, PreviewsFolder, id.String())
}
