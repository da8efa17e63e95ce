// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// computeBufferSize is the read buffer used when streaming a resource
// through the digest. Resources can be multi-gigabyte videos; reading
// in fixed chunks bounds memory regardless of content size.
const computeBufferSize = 512 * 1024

// Hash is an opaque digest value. It holds the raw digest bytes in a
// string so identifiers are comparable and usable as map keys; its
// length depends on the digest algorithm (32 bytes for BLAKE3, 8 for
// XXH64).
type Hash string

// ID identifies a resource by its content: the byte size plus the
// digest of the bytes. Two IDs are equal exactly when both fields
// match. Barring digest collision, equal IDs mean identical content;
// the index tracks collisions rather than assuming they cannot occur.
type ID struct {
	Size uint64
	Hash Hash
}

// Compute streams source through the digest and returns the resulting
// identifier. size must be the exact byte count of source, typically
// from file metadata: if the stream yields a different count the
// content changed (or was truncated) between stat and read, and an
// error is returned rather than a silently wrong identifier.
func Compute(digest Digest, size uint64, source io.Reader) (ID, error) {
	hasher := digest.New()
	buffer := make([]byte, computeBufferSize)

	var read uint64
	for {
		n, err := source.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
			read += uint64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return ID{}, fmt.Errorf("reading resource content: %w", err)
		}
	}

	if read != size {
		return ID{}, fmt.Errorf("resource size changed during hashing: read %d bytes, expected %d", read, size)
	}

	return ID{Size: size, Hash: Hash(hasher.Sum(nil))}, nil
}

// ComputeBytes returns the identifier for an in-memory byte slice.
func ComputeBytes(digest Digest, content []byte) (ID, error) {
	return Compute(digest, uint64(len(content)), bytes.NewReader(content))
}

// ComputeFile stats and hashes the file at path.
func ComputeFile(digest Digest, path string) (ID, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ID{}, fmt.Errorf("stating %s: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return ID{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	id, err := Compute(digest, uint64(info.Size()), file)
	if err != nil {
		return ID{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return id, nil
}

// String returns the canonical text encoding: the decimal size, a
// dash, and the URL-safe unpadded base64 digest. This is the form
// used in index snapshots, storage paths, and logs; Parse inverts it
// exactly. The URL-safe alphabet matters: identifiers name store
// directories under the vault, so the encoding must never produce a
// path separator.
func (id ID) String() string {
	return strconv.FormatUint(id.Size, 10) + "-" + base64.RawURLEncoding.EncodeToString([]byte(id.Hash))
}

// Parse decodes the canonical text encoding produced by [ID.String].
// Malformed input returns a *ParseError. The size is decimal, so
// cutting at the first dash is unambiguous even though the URL-safe
// base64 alphabet itself contains a dash.
func Parse(s string) (ID, error) {
	sizeField, hashField, found := strings.Cut(s, "-")
	if !found {
		return ID{}, &ParseError{Input: s, Reason: "missing size-hash separator"}
	}

	size, err := strconv.ParseUint(sizeField, 10, 64)
	if err != nil {
		return ID{}, &ParseError{Input: s, Reason: "size is not a decimal integer"}
	}

	raw, err := base64.RawURLEncoding.DecodeString(hashField)
	if err != nil {
		return ID{}, &ParseError{Input: s, Reason: "hash is not valid base64"}
	}
	if len(raw) == 0 {
		return ID{}, &ParseError{Input: s, Reason: "hash is empty"}
	}

	return ID{Size: size, Hash: Hash(raw)}, nil
}

// Compare orders identifiers by (size, hash), matching the sort order
// of persisted index snapshots. Returns -1, 0, or +1.
func (id ID) Compare(other ID) int {
	switch {
	case id.Size < other.Size:
		return -1
	case id.Size > other.Size:
		return 1
	default:
		return strings.Compare(string(id.Hash), string(other.Hash))
	}
}

// Less reports whether id orders before other.
func (id ID) Less(other ID) bool { return id.Compare(other) < 0 }

// IsZero reports whether id is the zero identifier (no content).
func (id ID) IsZero() bool { return id.Size == 0 && id.Hash == "" }

// MarshalText implements encoding.TextMarshaler so identifiers
// serialize as their canonical string in JSON object keys and CBOR
// text strings.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseError reports a malformed identifier encoding or an unknown
// digest name.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing resource identifier %q: %s", e.Input, e.Reason)
}
