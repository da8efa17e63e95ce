// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"hash"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Digest selects the algorithm used to hash resource content. The two
// production implementations are BLAKE3 and XXH64; tests substitute a
// deterministic stub. All identifiers in one vault must come from the
// same digest — mixing algorithms makes equal content look distinct.
type Digest interface {
	// Name is the stable algorithm name recorded in vault
	// configuration ("blake3", "xxh64").
	Name() string

	// New returns a fresh streaming hasher for one resource.
	New() hash.Hash
}

// BLAKE3 returns the default digest: 32-byte BLAKE3. Collisions are
// cryptographically hard to produce, so identifier collisions in
// practice mean identical content.
func BLAKE3() Digest { return blake3Digest{} }

type blake3Digest struct{}

func (blake3Digest) Name() string   { return "blake3" }
func (blake3Digest) New() hash.Hash { return blake3.New() }

// XXH64 returns the fast non-cryptographic digest: 8-byte XXH64.
// Roughly an order of magnitude faster than BLAKE3 on large files,
// at the cost of feasible collisions; the index tolerates and tracks
// collisions either way.
func XXH64() Digest { return xxh64Digest{} }

type xxh64Digest struct{}

func (xxh64Digest) Name() string   { return "xxh64" }
func (xxh64Digest) New() hash.Hash { return xxhash.New() }

// DigestByName resolves a digest from its configuration name.
func DigestByName(name string) (Digest, error) {
	switch name {
	case "blake3", "":
		return BLAKE3(), nil
	case "xxh64":
		return XXH64(), nil
	default:
		return nil, &ParseError{Input: name, Reason: "unknown digest algorithm"}
	}
}
