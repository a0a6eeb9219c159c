// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exercises contains small parallel programs that exercise the
// message passing layer and shared memory parallel loops: cyclic
// exchange, communication timing, tree reduction, scatter / gather,
// a distributed histogram, a concurrent set and a weight update.
package exercises

import (
	"github.com/parlab/mandelpool/base/errors"
	"github.com/parlab/mandelpool/distrib"
	"golang.org/x/sync/errgroup"
)

// ErrSize is returned when a problem size does not fit the number of ranks.
var ErrSize = errors.New("exercises: invalid problem size")

// ParallelFor calls fun(i) for every i in [0, n), splitting the range
// into contiguous chunks run on up to threads goroutines.
func ParallelFor(n, threads int, fun func(i int)) {
	if n <= 0 {
		return
	}
	threads = max(1, min(threads, n))
	var g errgroup.Group
	for t := range threads {
		lo, hi := distrib.Strip(n, threads, t)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				fun(i)
			}
			return nil
		})
	}
	g.Wait()
}
