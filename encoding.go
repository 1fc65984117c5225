// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamtmap

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// The trie shape depends on the per-instance seed and is full of back
// pointers, so serialization carries only the entries: a canonical array of
// [key, value] pairs in iteration order. Decoding clears the receiving
// instance, which draws it a fresh seed, and rebuilds the trie under that
// seed. K and V must be CBOR-codable.

// canonicalEnc makes equal pair sequences encode to equal bytes. Pair
// decoding needs no options beyond the defaults.
var canonicalEnc cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	canonicalEnc = mode
}

type encodedPair[K, V any] struct {
	_     struct{} `cbor:",toarray"`
	Key   K
	Value V
}

// MarshalCBOR encodes the container's entries canonically.
func (m *Map[K, V]) MarshalCBOR() ([]byte, error) {
	pairs := make([]encodedPair[K, V], 0, m.size)
	m.All(func(k K, v V) bool {
		pairs = append(pairs, encodedPair[K, V]{Key: k, Value: v})
		return true
	})
	return canonicalEnc.Marshal(pairs)
}

// UnmarshalCBOR replaces the container's contents with the encoded entries.
// The receiver must have been constructed normally; its hasher, equality and
// allocator are kept.
func (m *Map[K, V]) UnmarshalCBOR(data []byte) error {
	var pairs []encodedPair[K, V]
	if err := cbor.Unmarshal(data, &pairs); err != nil {
		return err
	}
	m.Clear()
	for i, p := range pairs {
		if _, err := m.Put(p.Key, p.Value); err != nil {
			return fmt.Errorf("hamtmap: re-inserting entry %d: %w", i, err)
		}
	}
	return nil
}
