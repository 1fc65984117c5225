// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamtmap

import "math/bits"

// The growth oracle pre-sizes a node's slot array from the container's
// expected final size and the node's depth. Shallow nodes of a well-filled
// trie tend toward 32 occupied slots while deep nodes stay narrow, so the
// guess shrinks by five bits of expected population per level.

const (
	maxTableDepth = 4
	maxGeneration = 22
)

// capTable[depth][generation] is the capacity guess, roughly
// clamp(2^(generation - 5*depth), 2, 32). Rows are node depth, columns are
// generation = ceil(log2(expected size)).
var capTable = [maxTableDepth + 1][maxGeneration + 1]uint8{
	{2, 2, 4, 8, 16, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32},
	{2, 2, 2, 2, 2, 2, 2, 4, 8, 16, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32, 32},
	{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 4, 8, 16, 32, 32, 32, 32, 32, 32, 32, 32},
	{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 4, 8, 16, 32, 32, 32},
	{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 4},
}

// capLadder is the rounding ladder for required counts that exceed the
// table's guess.
var capLadder = [...]uint8{1, 2, 3, 5, 8, 13, 21, 29, 32}

func roundCapacity(required int) int {
	for _, c := range capLadder {
		if int(c) >= required {
			return int(c)
		}
	}
	return maxFanout
}

// generation maps the expected container size to its growth stage,
// ceil(log2(expected)) clamped to the table width.
func generation(expected int) int {
	if expected < 2 {
		return 0
	}
	g := bits.Len(uint(expected - 1))
	if g > maxGeneration {
		g = maxGeneration
	}
	return g
}

// allocCapacity returns the capacity to allocate for a node that needs
// required slots. The result is always within [required, 32]. Depths past
// the table behave as the deepest row at generation 0.
func allocCapacity(required, expectedTotal, depth int) int {
	if required > maxFanout {
		required = maxFanout
	}
	var guess int
	if depth > maxTableDepth {
		guess = int(capTable[maxTableDepth][0])
	} else {
		guess = int(capTable[depth][generation(expectedTotal)])
	}
	if required > guess {
		return roundCapacity(required)
	}
	return guess
}
