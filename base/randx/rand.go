// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package randx provides randomization functionality built on top of
// the standard math/rand random number generation functions,
// with a separate source per stream so exercises are reproducible.
package randx

import (
	"math/rand"
	"sync"
)

// Rand is the subset of the [rand.Rand] methods used by the exercises.
type Rand interface {

	// Intn returns a pseudo-random number in [0,n). It panics if n <= 0.
	Intn(n int) int

	// Float32 returns a pseudo-random number in [0.0,1.0).
	Float32() float32

	// Perm returns a pseudo-random permutation of [0,n).
	Perm(n int) []int
}

// SysRand is a [Rand] on its own [rand.Rand] source, guarded by a
// mutex so that it is safe for concurrent use.
type SysRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

var _ Rand = (*SysRand)(nil)

// NewSysRand returns a new SysRand with the given seed.
func NewSysRand(seed int64) *SysRand {
	return &SysRand{src: rand.New(rand.NewSource(seed))}
}

func (r *SysRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

func (r *SysRand) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float32()
}

func (r *SysRand) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Perm(n)
}
