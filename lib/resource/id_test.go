// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"bytes"
	"errors"
	"hash"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubDigest is a deterministic 4-byte digest for tests: the first
// four content bytes, zero-padded. Trivial to collide on purpose.
type stubDigest struct{}

func (stubDigest) Name() string   { return "stub" }
func (stubDigest) New() hash.Hash { return &stubHasher{} }

type stubHasher struct {
	prefix [4]byte
	n      int
}

func (h *stubHasher) Write(p []byte) (int, error) {
	for _, b := range p {
		if h.n < len(h.prefix) {
			h.prefix[h.n] = b
			h.n++
		}
	}
	return len(p), nil
}

func (h *stubHasher) Sum(b []byte) []byte { return append(b, h.prefix[:]...) }
func (h *stubHasher) Reset()              { *h = stubHasher{} }
func (h *stubHasher) Size() int           { return 4 }
func (h *stubHasher) BlockSize() int      { return 1 }

func TestComputeBytesMatchesCompute(t *testing.T) {
	content := []byte("Hello, world!")

	fromBytes, err := ComputeBytes(BLAKE3(), content)
	if err != nil {
		t.Fatalf("ComputeBytes failed: %v", err)
	}

	fromReader, err := Compute(BLAKE3(), uint64(len(content)), bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if fromBytes != fromReader {
		t.Errorf("ComputeBytes = %s, Compute = %s", fromBytes, fromReader)
	}
	if fromBytes.Size != uint64(len(content)) {
		t.Errorf("Size = %d, want %d", fromBytes.Size, len(content))
	}
	if len(fromBytes.Hash) != 32 {
		t.Errorf("BLAKE3 hash is %d bytes, want 32", len(fromBytes.Hash))
	}
}

func TestComputeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resource.txt")
	content := []byte("file content for hashing")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := ComputeFile(BLAKE3(), path)
	if err != nil {
		t.Fatalf("ComputeFile failed: %v", err)
	}

	fromBytes, err := ComputeBytes(BLAKE3(), content)
	if err != nil {
		t.Fatal(err)
	}

	if fromFile != fromBytes {
		t.Errorf("ComputeFile = %s, ComputeBytes = %s", fromFile, fromBytes)
	}
}

func TestComputeSizeMismatch(t *testing.T) {
	content := []byte("short")

	// Claim more bytes than the reader yields.
	_, err := Compute(BLAKE3(), uint64(len(content))+1, bytes.NewReader(content))
	if err == nil {
		t.Fatal("expected error for size mismatch, got nil")
	}
	if !strings.Contains(err.Error(), "size changed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestComputeDigestsDiffer(t *testing.T) {
	content := []byte("same content, different algorithms")

	b3, err := ComputeBytes(BLAKE3(), content)
	if err != nil {
		t.Fatal(err)
	}
	xx, err := ComputeBytes(XXH64(), content)
	if err != nil {
		t.Fatal(err)
	}

	if b3.Size != xx.Size {
		t.Errorf("sizes differ: %d vs %d", b3.Size, xx.Size)
	}
	if b3.Hash == xx.Hash {
		t.Error("BLAKE3 and XXH64 produced the same hash")
	}
	if len(xx.Hash) != 8 {
		t.Errorf("XXH64 hash is %d bytes, want 8", len(xx.Hash))
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	for _, digest := range []Digest{BLAKE3(), XXH64(), stubDigest{}} {
		id, err := ComputeBytes(digest, []byte("round-trip content"))
		if err != nil {
			t.Fatalf("%s: ComputeBytes failed: %v", digest.Name(), err)
		}

		parsed, err := Parse(id.String())
		if err != nil {
			t.Fatalf("%s: Parse(%q) failed: %v", digest.Name(), id.String(), err)
		}
		if parsed != id {
			t.Errorf("%s: round-trip mismatch: %s != %s", digest.Name(), parsed, id)
		}
	}
}

func TestStringIsFilenameSafe(t *testing.T) {
	// Hash bytes chosen so the standard base64 alphabet would emit
	// both of its path-hostile characters.
	ids := []ID{
		{Size: 7, Hash: Hash("\x03\xff\xc1")},
		{Size: 7, Hash: Hash("\x03\xf0\x7f")},
		{Size: 7, Hash: Hash("\xfb\xef\xbe")},
	}
	for _, id := range ids {
		text := id.String()
		if strings.ContainsAny(text, "/+=") {
			t.Errorf("String() = %q contains a filename-hostile character", text)
		}
		parsed, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", text, err)
		}
		if parsed != id {
			t.Errorf("round-trip mismatch: %v != %v", parsed, id)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separator", "12345"},
		{"non-numeric size", "abc-aGVsbG8="},
		{"negative size", "-12-aGVsbG8="},
		{"bad base64", "12-!!!not-base64!!!"},
		{"padded base64", "12-aGVsbG8="},
		{"empty hash", "12-"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tc.input)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("Parse(%q) error is %T, want *ParseError", tc.input, err)
			}
		})
	}
}

func TestIDOrdering(t *testing.T) {
	small := ID{Size: 1, Hash: Hash("bbbb")}
	sameSizeLater := ID{Size: 1, Hash: Hash("cccc")}
	bigger := ID{Size: 2, Hash: Hash("aaaa")}

	if !small.Less(sameSizeLater) {
		t.Error("hash should break ties at equal size")
	}
	if !sameSizeLater.Less(bigger) {
		t.Error("size should dominate ordering")
	}
	if small.Compare(small) != 0 {
		t.Error("Compare with self should be 0")
	}
	if bigger.Compare(small) != 1 {
		t.Error("reverse comparison should be 1")
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	id, err := ComputeBytes(BLAKE3(), []byte("marshal me"))
	if err != nil {
		t.Fatal(err)
	}

	text, err := id.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var decoded ID
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if decoded != id {
		t.Errorf("text round-trip mismatch: %s != %s", decoded, id)
	}
}

func TestDigestByName(t *testing.T) {
	for name, want := range map[string]string{
		"":       "blake3",
		"blake3": "blake3",
		"xxh64":  "xxh64",
	} {
		digest, err := DigestByName(name)
		if err != nil {
			t.Fatalf("DigestByName(%q) failed: %v", name, err)
		}
		if digest.Name() != want {
			t.Errorf("DigestByName(%q).Name() = %q, want %q", name, digest.Name(), want)
		}
	}

	if _, err := DigestByName("md5"); err == nil {
		t.Error("DigestByName(md5) should fail")
	}
}
