// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package hamtmap implements a mutable in-memory associative container on a
// Hash Array Mapped Trie (Bagwell, 2001). Keys are placed by consuming the
// seeded 32-bit key hash five bits at a time through 32-way nodes that store
// only their occupied slots; keys whose hashes collide entirely fall back to
// a flat collision bucket. Lookup, insertion and iteration are near
// constant time.
//
// An instance may be shared for concurrent reads, but any mutation requires
// exclusive access; there is no internal locking.
package hamtmap

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Map is an associative container from K to V. The zero value is not usable;
// construct instances with New or NewWithConfig.
type Map[K, V any] struct {
	root     node[K, V]
	seed     uint32
	size     int
	expected int
	hasher   Hasher[K]
	equal    EqualFn[K]
	alloc    Allocator
}

// Config carries the construction parameters for NewWithConfig.
type Config[K any] struct {
	// ExpectedSize is the anticipated final entry count; it drives the
	// growth oracle. Zero is treated as one.
	ExpectedSize int `validate:"gte=0"`
	// Hasher maps a key to the 32 hash bits the trie walk consumes.
	Hasher Hasher[K] `validate:"required"`
	// Equal is the key equality relation; it must agree with Hasher.
	Equal EqualFn[K] `validate:"required"`
	// Allocator bounds slot-array memory. Nil selects HeapAllocator.
	Allocator Allocator
	// Seed overrides the random per-instance hash seed. Shape-sensitive
	// tests need this; leave nil otherwise.
	Seed *uint32
}

var validate = validator.New()

// NewWithConfig builds a container from an explicit Config.
func NewWithConfig[K, V any](cfg Config[K]) (*Map[K, V], error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("hamtmap: invalid config: %w", err)
	}
	expected := cfg.ExpectedSize
	if expected < 1 {
		expected = 1
	}
	al := cfg.Allocator
	if al == nil {
		al = HeapAllocator{}
	}
	seed := seedSource()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	m := &Map[K, V]{
		seed:     seed,
		expected: expected,
		hasher:   cfg.Hasher,
		equal:    cfg.Equal,
		alloc:    al,
	}
	if err := m.allocateTrie(&m.root.sub, allocCapacity(1, expected, 0)); err != nil {
		return nil, err
	}
	return m, nil
}

// New builds a container expecting roughly expected entries, hashing and
// comparing keys with the given functions. It panics if either function is
// nil.
func New[K, V any](expected int, hasher Hasher[K], equal EqualFn[K]) *Map[K, V] {
	m, err := NewWithConfig[K, V](Config[K]{
		ExpectedSize: expected,
		Hasher:       hasher,
		Equal:        equal,
	})
	if err != nil {
		panic(err)
	}
	return m
}

// Size returns the number of entries.
func (m *Map[K, V]) Size() int {
	return m.size
}

// Empty reports whether the container holds no entries.
func (m *Map[K, V]) Empty() bool {
	return m.size == 0
}

// Get retrieves the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if n := m.findNode(key); n != nil {
		return n.value, true
	}
	var zero V
	return zero, false
}

// Ref returns a pointer to the value stored under key, or nil when absent.
// The pointer is invalidated by any later mutation of the container.
func (m *Map[K, V]) Ref(key K) *V {
	if n := m.findNode(key); n != nil {
		return &n.value
	}
	return nil
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	return m.findNode(key) != nil
}

// findNode walks the trie toward key, consuming five hash bits per level.
// Once the full 32 bits are consumed the remaining subtree is a flat
// collision bucket and is searched exhaustively.
func (m *Map[K, V]) findNode(key K) *node[K, V] {
	h := mixHash(m.hasher(key), m.seed)
	cur := &m.root
	for shift := uint(0); ; shift += bitsPerStep {
		slot := uint32((h >> shift) & slotMask)
		if !cur.sub.slotTaken(slot) {
			return nil
		}
		n := cur.sub.logicalGet(slot)
		if n.leaf {
			if m.equal(n.key, key) {
				return n
			}
			return nil
		}
		if shift >= hashBits-bitsPerStep {
			// hash exhausted; slot position no longer distinguishes keys
			return m.searchBucket(n, key)
		}
		cur = n
	}
}

// searchBucket scans a collision-bucket subtree for key, depth first.
func (m *Map[K, V]) searchBucket(root *node[K, V], key K) *node[K, V] {
	stack := []*node[K, V]{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for j := range n.sub.base {
			c := &n.sub.base[j]
			if c.leaf {
				if m.equal(c.key, key) {
					return c
				}
			} else {
				stack = append(stack, c)
			}
		}
	}
	return nil
}

// Insert stores value under key only if the key is absent. It returns a
// reference to the stored value (the existing one when the key was already
// present) and whether an insertion happened.
func (m *Map[K, V]) Insert(key K, value V) (*V, bool, error) {
	n, existed, err := m.insert(key, value)
	if err != nil {
		return nil, false, err
	}
	return &n.value, !existed, nil
}

// Put stores value under key unconditionally and reports whether the key was
// already present.
func (m *Map[K, V]) Put(key K, value V) (bool, error) {
	n, existed, err := m.insert(key, value)
	if err != nil {
		return false, err
	}
	if existed {
		n.value = value
	}
	return existed, nil
}

// GetOrInsert returns a mutable reference to the value under key, inserting
// a zero value first when the key is absent.
func (m *Map[K, V]) GetOrInsert(key K) (*V, error) {
	var zero V
	n, _, err := m.insert(key, zero)
	if err != nil {
		return nil, err
	}
	return &n.value, nil
}

func (m *Map[K, V]) insert(key K, value V) (*node[K, V], bool, error) {
	h := mixHash(m.hasher(key), m.seed)
	n, existed, err := m.insertAt(&m.root, h, 0, 0, key, value)
	if err != nil {
		return nil, false, err
	}
	if !existed {
		m.size++
	}
	return n, existed, nil
}

// insertAt places key below the trie node cur, whose slots are selected by
// the hash bits at shift. Occupied-slot transitions: an equal-key entry is
// returned as is, a different-key entry is split into a fresh sub-trie, and
// a trie is descended into.
func (m *Map[K, V]) insertAt(cur *node[K, V], h uint32, shift uint, depth int, key K, value V) (*node[K, V], bool, error) {
	if shift >= hashBits {
		return m.bucketInsert(cur, depth, key, value)
	}
	slot := uint32((h >> shift) & slotMask)
	if !cur.sub.slotTaken(slot) {
		n, err := m.insertEntry(&cur.sub, slot, cur, depth)
		if err != nil {
			return nil, false, err
		}
		n.key = key
		n.value = value
		return n, false, nil
	}
	n := cur.sub.logicalGet(slot)
	if n.leaf {
		if m.equal(n.key, key) {
			return n, true, nil
		}
		return m.splitEntry(n, shift+bitsPerStep, key, value)
	}
	return m.insertAt(n, h, shift+bitsPerStep, depth+1, key, value)
}

// splitEntry replaces the entry node n with a chain of 2-capacity tries
// deep enough to separate the resident key from the new one, then stores
// both. The whole chain is reserved up front so an allocation failure leaves
// the entry untouched.
func (m *Map[K, V]) splitEntry(n *node[K, V], shift uint, key K, value V) (*node[K, V], bool, error) {
	oldHash := mixHash(m.hasher(n.key), m.seed)
	newHash := mixHash(m.hasher(key), m.seed)

	levels := 1
	for s := shift; s < hashBits && (oldHash>>s)&slotMask == (newHash>>s)&slotMask; s += bitsPerStep {
		levels++
	}
	if err := m.alloc.Reserve(levels * 2); err != nil {
		return nil, false, fmt.Errorf("hamtmap: splitting entry: %w", err)
	}

	oldKey, oldValue := n.key, n.value
	var zeroK K
	var zeroV V
	n.key, n.value = zeroK, zeroV
	n.leaf = false
	n.sub = bitmapTrie[K, V]{base: make([]node[K, V], 0, 2)}

	cur := n
	for shift < hashBits {
		oldSlot := uint32((oldHash >> shift) & slotMask)
		newSlot := uint32((newHash >> shift) & slotMask)
		if oldSlot != newSlot {
			moved := cur.sub.place(oldSlot, cur)
			moved.key, moved.value = oldKey, oldValue
			fresh := cur.sub.place(newSlot, cur)
			fresh.key, fresh.value = key, value
			return fresh, false, nil
		}
		child := cur.sub.place(oldSlot, cur)
		child.leaf = false
		child.sub = bitmapTrie[K, V]{base: make([]node[K, V], 0, 2)}
		cur = child
		shift += bitsPerStep
	}

	// the hashes agree on all 32 bits; cur becomes a collision bucket
	moved := cur.sub.place(0, cur)
	moved.key, moved.value = oldKey, oldValue
	fresh := cur.sub.place(1, cur)
	fresh.key, fresh.value = key, value
	return fresh, false, nil
}
