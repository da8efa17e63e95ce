// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bytes"
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestStoreAndLoadPreview(t *testing.T) {
	store := newTestStorage(t)
	id := testID(t, "previewed resource")
	extract := []byte(strings.Repeat("extracted text of the document. ", 100))

	if err := store.StorePreview(id, "text/plain", extract); err != nil {
		t.Fatalf("StorePreview failed: %v", err)
	}

	mediaType, data, err := store.LoadPreview(id)
	if err != nil {
		t.Fatalf("LoadPreview failed: %v", err)
	}
	if mediaType != "text/plain" {
		t.Errorf("mediaType = %q", mediaType)
	}
	if !bytes.Equal(data, extract) {
		t.Error("preview data corrupted in round trip")
	}
}

func TestStorePreviewReplacesOldVersion(t *testing.T) {
	store := newTestStorage(t)
	id := testID(t, "re-previewed")

	if err := store.StorePreview(id, "image/png", []byte("old thumbnail")); err != nil {
		t.Fatal(err)
	}
	if err := store.StorePreview(id, "image/png", []byte("new thumbnail")); err != nil {
		t.Fatal(err)
	}

	_, data, err := store.LoadPreview(id)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new thumbnail" {
		t.Errorf("data = %q, want new thumbnail", data)
	}
}

func TestStorePreviewForcedCompression(t *testing.T) {
	store := newTestStorage(t)
	store.SetCompression(CompressionZstd)
	id := testID(t, "forced compression")
	extract := []byte(strings.Repeat("the same sentence over and over. ", 50))

	// image/jpeg would normally store uncompressed; the forced
	// algorithm wins for compressible payloads.
	if err := store.StorePreview(id, "image/jpeg", extract); err != nil {
		t.Fatal(err)
	}
	_, data, err := store.LoadPreview(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, extract) {
		t.Error("preview data corrupted in round trip")
	}
}

func TestLoadPreviewAbsent(t *testing.T) {
	store := newTestStorage(t)
	if _, _, err := store.LoadPreview(testID(t, "no preview")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}
