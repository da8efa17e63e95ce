// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/memex-foundation/memex/lib/resource"
)

type previewRecord struct {
	ID     resource.ID `cbor:"id"`
	Width  int         `cbor:"width"`
	Height int         `cbor:"height"`
	Data   []byte      `cbor:"data"`
}

func TestMarshalRoundTrip(t *testing.T) {
	id, err := resource.ComputeBytes(resource.XXH64(), []byte("preview source"))
	if err != nil {
		t.Fatal(err)
	}
	record := previewRecord{
		ID:     id,
		Width:  320,
		Height: 200,
		Data:   []byte{0x89, 0x50, 0x4e, 0x47},
	}

	encoded, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded previewRecord
	if err := Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.ID != record.ID {
		t.Errorf("ID = %v, want %v", decoded.ID, record.ID)
	}
	if decoded.Width != record.Width || decoded.Height != record.Height {
		t.Errorf("dimensions = %dx%d, want %dx%d",
			decoded.Width, decoded.Height, record.Width, record.Height)
	}
	if !bytes.Equal(decoded.Data, record.Data) {
		t.Errorf("Data = %x, want %x", decoded.Data, record.Data)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]any{
		"zulu":  1,
		"alpha": []any{"b", "a"},
		"mike":  map[string]any{"y": 2, "x": 1},
	}

	first, err := Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same value encoded to different bytes")
	}
}

func TestDiagnoseShowsIdentifierAsText(t *testing.T) {
	id, err := resource.ComputeBytes(resource.XXH64(), []byte("diagnosable"))
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := Marshal(map[string]any{"id": id})
	if err != nil {
		t.Fatal(err)
	}

	notation, err := Diagnose(encoded)
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}
	if !strings.Contains(notation, id.String()) {
		t.Errorf("diagnostic %q does not contain %q", notation, id)
	}
}

func TestUnmarshalAnyUsesStringKeyedMaps(t *testing.T) {
	encoded, err := Marshal(map[string]any{"nested": map[string]any{"k": "v"}})
	if err != nil {
		t.Fatal(err)
	}

	var decoded any
	if err := Unmarshal(encoded, &decoded); err != nil {
		t.Fatal(err)
	}
	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Fatalf("nested type = %T, want map[string]any", top["nested"])
	}
}
