// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamtmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masslbs/hamtmap/internal/testhelper"
)

func newBoundedMap(t *testing.T, limit int, hasher Hasher[int]) (*Map[int, int], *BoundedAllocator) {
	t.Helper()
	al := &BoundedAllocator{Limit: limit}
	m, err := NewWithConfig[int, int](Config[int]{
		ExpectedSize: 1,
		Hasher:       hasher,
		Equal:        testhelper.IntEqual,
		Allocator:    al,
		Seed:         testhelper.Uint32Ptr(0),
	})
	require.NoError(t, err)
	return m, al
}

func TestConstructionFailsWithoutBudget(t *testing.T) {
	r := require.New(t)
	al := &BoundedAllocator{Limit: 0}
	_, err := NewWithConfig[int, int](Config[int]{
		ExpectedSize: 1,
		Hasher:       IntHasher,
		Equal:        testhelper.IntEqual,
		Allocator:    al,
	})
	r.Error(err)
	r.True(errors.Is(err, ErrOutOfMemory))
	r.Equal(0, al.Used())
}

func TestSplitFailureLeavesMapUntouched(t *testing.T) {
	r := require.New(t)
	// the root's two slots fit under the budget; the split chain does not
	m, al := newBoundedMap(t, 2, testhelper.SharedLowBitsHash)
	r.Equal(2, al.Used())

	_, _, err := m.Insert(1, 10)
	r.NoError(err)

	_, _, err = m.Insert(2, 20)
	r.Error(err)
	r.True(errors.Is(err, ErrOutOfMemory))

	// nothing visible changed
	r.Equal(1, m.Size())
	val, ok := m.Get(1)
	r.True(ok)
	r.Equal(10, val)
	_, ok = m.Get(2)
	r.False(ok)
	r.Equal(2, al.Used())
	checkInvariants(t, m)
}

func TestGrowFailureLeavesMapUntouched(t *testing.T) {
	r := require.New(t)
	// identity hash with seed zero spreads keys over distinct root slots;
	// the third entry forces a grow past the budget
	m, al := newBoundedMap(t, 2, testhelper.IdentityHash)

	_, _, err := m.Insert(0, 0)
	r.NoError(err)
	_, _, err = m.Insert(1, 1)
	r.NoError(err)

	_, _, err = m.Insert(2, 2)
	r.Error(err)
	r.True(errors.Is(err, ErrOutOfMemory))

	r.Equal(2, m.Size())
	for i := 0; i < 2; i++ {
		val, ok := m.Get(i)
		r.True(ok)
		r.Equal(i, val)
	}
	_, ok := m.Get(2)
	r.False(ok)
	r.Equal(2, al.Used())
	checkInvariants(t, m)
}

func TestGrowSucceedsWithinBudget(t *testing.T) {
	r := require.New(t)
	m, al := newBoundedMap(t, 64, testhelper.IdentityHash)

	for i := 0; i < 32; i++ {
		_, _, err := m.Insert(i, i)
		r.NoError(err)
	}
	r.Equal(32, m.Size())
	// exactly one root buffer is left reserved
	r.Equal(32, al.Used())
	checkInvariants(t, m)
}

func TestBudgetAccountingAfterClear(t *testing.T) {
	r := require.New(t)
	m, al := newBoundedMap(t, 256, IntHasher)

	for i := 0; i < 100; i++ {
		_, _, err := m.Insert(i, i)
		r.NoError(err)
	}
	r.Greater(al.Used(), 0)

	m.Clear()
	// only the fresh 1-capacity root remains reserved
	r.Equal(1, al.Used())
}

func TestBucketAppendFailure(t *testing.T) {
	r := require.New(t)
	// budget covers the root and the full split chain to the bucket, but
	// not the bucket's first grow (2 -> 3 slots)
	m, al := newBoundedMap(t, 16, testhelper.ConstantHash)
	r.Equal(2, al.Used())

	_, _, err := m.Insert(0, 0)
	r.NoError(err)
	_, _, err = m.Insert(1, 1)
	r.NoError(err)
	r.Equal(16, al.Used())

	_, _, err = m.Insert(2, 2)
	r.Error(err)
	r.True(errors.Is(err, ErrOutOfMemory))

	r.Equal(2, m.Size())
	val, ok := m.Get(0)
	r.True(ok)
	r.Equal(0, val)
	val, ok = m.Get(1)
	r.True(ok)
	r.Equal(1, val)
	_, ok = m.Get(2)
	r.False(ok)
	checkInvariants(t, m)
}

func TestCloneFailureReleasesPartialCopy(t *testing.T) {
	r := require.New(t)
	// a constant hash gives a fully deterministic shape: the root, the
	// seven-trie split chain whose last trie is the 32-slot bucket, and one
	// overflow child
	m, al := newBoundedMap(t, 90, testhelper.ConstantHash)

	for i := 0; i < 34; i++ {
		_, _, err := m.Insert(i, i)
		r.NoError(err)
	}
	used := al.Used()
	r.Equal(49, used)

	// the clone needs as much budget again; it cannot fit
	_, err := m.Clone()
	r.Error(err)
	r.True(errors.Is(err, ErrOutOfMemory))
	// everything the partial copy took is back
	r.Equal(used, al.Used())

	// the source is intact
	r.Equal(34, m.Size())
	checkInvariants(t, m)
}
