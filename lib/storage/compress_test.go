// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	compressible := []byte(strings.Repeat("memex stores previews compressed. ", 200))

	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		payload, err := compress(compressible, compression)
		if err != nil {
			t.Fatalf("%s compress failed: %v", compression, err)
		}
		if len(payload) >= len(compressible) {
			t.Errorf("%s did not shrink repetitive input", compression)
		}

		restored, err := decompress(payload, compression, len(compressible))
		if err != nil {
			t.Fatalf("%s decompress failed: %v", compression, err)
		}
		if !bytes.Equal(restored, compressible) {
			t.Errorf("%s round trip corrupted data", compression)
		}
	}
}

func TestCompressIncompressibleInput(t *testing.T) {
	random := make([]byte, 4096)
	if _, err := rand.Read(random); err != nil {
		t.Fatal(err)
	}

	payload, compression, err := compressAuto(random, "", "")
	if err != nil {
		t.Fatalf("compressAuto failed: %v", err)
	}
	if compression != CompressionNone {
		t.Errorf("compression = %s, want none for random bytes", compression)
	}
	if !bytes.Equal(payload, random) {
		t.Error("uncompressed payload differs from input")
	}
}

func TestSelectCompressionByMediaType(t *testing.T) {
	text := []byte("short")
	if got := selectCompression(text, "text/plain"); got != CompressionZstd {
		t.Errorf("text/plain selected %s", got)
	}
	if got := selectCompression(text, "image/jpeg"); got != CompressionNone {
		t.Errorf("image/jpeg selected %s", got)
	}
}

func TestDecompressVerifiesRecordedSize(t *testing.T) {
	data := []byte(strings.Repeat("abcd", 512))
	payload, err := compress(data, CompressionZstd)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := decompress(payload, CompressionZstd, len(data)-1); err == nil {
		t.Error("size mismatch went undetected")
	}
}

func TestParseCompression(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		if _, err := ParseCompression(name); err != nil {
			t.Errorf("ParseCompression(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseCompression("brotli"); err == nil {
		t.Error("unknown compression accepted")
	}
}
