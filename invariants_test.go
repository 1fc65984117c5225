// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamtmap

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

// checkInvariants walks the whole trie and verifies the structural
// invariants: occupancy bitmaps agree with the stored slot counts, every
// child's back-pointer names the node holding it, every reachable entry is
// findable under its own key, and the entry count matches Size.
func checkInvariants[K, V any](t *testing.T, m *Map[K, V]) {
	t.Helper()
	r := require.New(t)

	entries := 0
	stack := []*node[K, V]{&m.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r.False(n.leaf)
		r.Equal(bits.OnesCount32(n.sub.bitmap), len(n.sub.base))
		r.LessOrEqual(len(n.sub.base), cap(n.sub.base))
		r.LessOrEqual(cap(n.sub.base), maxFanout)
		if cap(n.sub.base) > 0 {
			r.NotNil(n.sub.base)
		}

		for j := range n.sub.base {
			c := &n.sub.base[j]
			r.Same(n, c.parent)
			if c.leaf {
				entries++
				found := m.findNode(c.key)
				r.NotNil(found)
				r.Same(c, found)
			} else {
				stack = append(stack, c)
			}
		}
	}
	r.Equal(m.size, entries)

	// parent chains of all entries terminate at the root
	for n := m.firstEntry(); n != nil; n = nextEntry(n) {
		hops := 0
		p := n
		for p.parent != nil {
			p = p.parent
			hops++
			r.LessOrEqual(hops, 64)
		}
		r.Same(&m.root, p)
	}
}
