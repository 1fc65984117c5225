// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamtmap

// Deep copy and deep destroy traverse with explicit work stacks so native
// stack usage stays bounded by trie depth even under pathological hashers.

// Clone returns a deep copy sharing no structure with the receiver. The copy
// keeps the seed (the shape encodes it) and the allocator handle.
func (m *Map[K, V]) Clone() (*Map[K, V], error) {
	out := &Map[K, V]{
		seed:     m.seed,
		size:     m.size,
		expected: m.expected,
		hasher:   m.hasher,
		equal:    m.equal,
		alloc:    m.alloc,
	}
	if err := out.allocateTrie(&out.root.sub, m.root.sub.capacity()); err != nil {
		return nil, err
	}

	type pair struct {
		dst, src *node[K, V]
	}
	stack := []pair{{&out.root, &m.root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dt, st := &p.dst.sub, &p.src.sub
		dt.bitmap = st.bitmap
		dt.base = dt.base[:len(st.base)]
		for j := range st.base {
			s := &st.base[j]
			d := &dt.base[j]
			d.parent = p.dst
			d.leaf = s.leaf
			if s.leaf {
				d.key, d.value = s.key, s.value
				continue
			}
			if err := out.allocateTrie(&d.sub, s.sub.capacity()); err != nil {
				out.destroy()
				return nil, err
			}
			stack = append(stack, pair{d, s})
		}
	}
	return out, nil
}

// destroy walks the trie iteratively and releases every slot array. The
// subtree contents are detached onto the stack before their holder's base is
// dropped.
func (m *Map[K, V]) destroy() {
	stack := []bitmapTrie[K, V]{m.root.sub}
	m.root.sub = bitmapTrie[K, V]{}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for j := len(t.base) - 1; j >= 0; j-- {
			if n := &t.base[j]; !n.leaf {
				stack = append(stack, n.sub)
			}
		}
		if cap(t.base) > 0 {
			m.alloc.Release(cap(t.base))
		}
	}
}

// Clear removes every entry, resets the root to an empty 1-capacity trie and
// draws a fresh hash seed.
func (m *Map[K, V]) Clear() {
	m.destroy()
	m.size = 0
	m.seed = seedSource()
	if err := m.allocateTrie(&m.root.sub, 1); err != nil {
		// destroy just gave back at least one slot, so only an allocator
		// with a zero budget lands here; the next insert retries the
		// allocation
		m.root.sub = bitmapTrie[K, V]{}
	}
}

// Swap exchanges the full contents of two containers in constant time.
func (m *Map[K, V]) Swap(o *Map[K, V]) {
	m.root, o.root = o.root, m.root
	// the roots moved; their children's back-pointers follow
	reparentChildren(&m.root)
	reparentChildren(&o.root)
	m.seed, o.seed = o.seed, m.seed
	m.size, o.size = o.size, m.size
	m.expected, o.expected = o.expected, m.expected
	m.hasher, o.hasher = o.hasher, m.hasher
	m.equal, o.equal = o.equal, m.equal
	m.alloc, o.alloc = o.alloc, m.alloc
}
