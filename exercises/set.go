// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exercises

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Set is a bounded set of integers, safe for concurrent use.
// Remove and Sort use threads goroutines internally.
type Set struct {
	mu      sync.Mutex
	vals    []int
	maxSize int
	threads int
}

// NewSet returns an empty set holding at most maxSize values.
func NewSet(maxSize, threads int) *Set {
	return &Set{vals: make([]int, 0, maxSize), maxSize: maxSize, threads: max(1, threads)}
}

// Add adds v if the set is not full and v is not already present,
// returning whether it was added. The check and the insert are
// one critical section.
func (s *Set) Add(v int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == s.maxSize || slices.Contains(s.vals, v) {
		return false
	}
	s.vals = append(s.vals, v)
	return true
}

// Remove removes v, keeping the order of the other values,
// and returns whether it was present. The search runs in parallel.
func (s *Set) Remove(v int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var index atomic.Int64
	index.Store(-1)
	ParallelFor(len(s.vals), s.threads, func(i int) {
		if s.vals[i] == v {
			index.Store(int64(i))
		}
	})
	i := int(index.Load())
	if i < 0 {
		return false
	}
	s.vals = slices.Delete(s.vals, i, i+1)
	return true
}

// Sort sorts the set by odd-even transposition: alternating phases
// compare and swap the disjoint pairs (i, i+1) starting at even and
// odd i, each phase in parallel, until a pair of phases swaps nothing.
func (s *Set) Sort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.vals)
	quiet := 0
	for phase := 0; quiet < 2; phase++ {
		start := phase % 2
		var swapped atomic.Bool
		ParallelFor((n-start)/2, s.threads, func(k int) {
			i := start + 2*k
			if s.vals[i] > s.vals[i+1] {
				s.vals[i], s.vals[i+1] = s.vals[i+1], s.vals[i]
				swapped.Store(true)
			}
		})
		if swapped.Load() {
			quiet = 0
		} else {
			quiet++
		}
	}
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.vals)
}

// Values returns a copy of the values, in set order.
func (s *Set) Values() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.vals)
}
