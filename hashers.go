// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamtmap

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hasher produces the 32-bit hash the trie walk consumes. Equal keys must
// hash equally; the container cannot detect a hasher that violates this.
type Hasher[K any] func(K) uint32

// EqualFn reports whether two keys are the same key.
type EqualFn[K any] func(K, K) bool

// fold32 compresses an xxhash64 digest into the 32 bits the trie consumes.
func fold32(h uint64) uint32 {
	return uint32(h ^ (h >> 32))
}

// BytesHasher hashes a byte-slice key with xxhash.
func BytesHasher(key []byte) uint32 {
	return fold32(xxhash.Sum64(key))
}

// StringHasher hashes a string key with xxhash.
func StringHasher(key string) uint32 {
	return fold32(xxhash.Sum64String(key))
}

// Uint64Hasher hashes an unsigned integer key with xxhash.
func Uint64Hasher(key uint64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return fold32(xxhash.Sum64(buf[:]))
}

// IntHasher hashes an int key with xxhash.
func IntHasher(key int) uint32 {
	return Uint64Hasher(uint64(key))
}

// BytesEqual is the equality relation matching BytesHasher.
func BytesEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// ComparableEqual builds an equality relation for any comparable key type.
func ComparableEqual[K comparable]() EqualFn[K] {
	return func(a, b K) bool { return a == b }
}
