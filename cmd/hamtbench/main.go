// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/masslbs/hamtmap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "fill":
		fill()
	case "roundtrip":
		roundtrip()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("usage: hamtbench fill [n] | roundtrip [n]")
	os.Exit(1)
}

func count() int {
	n := 100_000
	if len(os.Args) > 2 {
		parsed, err := strconv.Atoi(os.Args[2])
		check(err)
		n = parsed
	}
	return n
}

func newMap(n int) *hamtmap.Map[int, int] {
	return hamtmap.New[int, int](n, hamtmap.IntHasher, hamtmap.ComparableEqual[int]())
}

func fill() {
	n := count()
	m := newMap(n)

	start := time.Now()
	for i := 1; i <= n; i++ {
		_, _, err := m.Insert(i*10, i)
		check(err)
	}
	elapsed := time.Since(start)

	st := m.Stats()
	fmt.Printf("inserted %d entries in %s\n", m.Size(), elapsed)
	fmt.Printf("tries=%d maxDepth=%d avgDepth=%.2f slackSlots=%d\n",
		st.Tries, st.MaxDepth, st.AvgDepth, st.SlackSlots)
}

func roundtrip() {
	n := count()
	m := newMap(n)
	for i := 1; i <= n; i++ {
		_, _, err := m.Insert(i*10, i)
		check(err)
	}

	data, err := m.MarshalCBOR()
	check(err)
	fmt.Printf("encoded %d entries into %d bytes\n", m.Size(), len(data))

	decoded := newMap(n)
	check(decoded.UnmarshalCBOR(data))
	if decoded.Size() != m.Size() {
		check(fmt.Errorf("size mismatch after decode: %d != %d", decoded.Size(), m.Size()))
	}
	for i := 1; i <= n; i++ {
		v, ok := decoded.Get(i * 10)
		if !ok || v != i {
			check(fmt.Errorf("key %d: got (%d, %t), want (%d, true)", i*10, v, ok, i))
		}
	}
	fmt.Println("roundtrip ok")
}

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
