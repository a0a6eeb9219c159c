// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exercises

import (
	"context"

	"github.com/parlab/mandelpool/base/mpi"
)

// Cyclic sends n values (rank+1)*(i+1) to the next rank, wrapping
// around, and returns the values received from the previous rank.
//
// Unstaggered, every rank sends before it receives, which deadlocks
// once the messages are too large to be buffered. Staggered, even ranks
// send first and odd ranks receive first, which works at any size
// as long as there is more than one rank.
func Cyclic(ctx context.Context, cm *mpi.Comm, n int, staggered bool) ([]int32, error) {
	rank, size := cm.Rank(), cm.Size()
	send := make([]int32, n)
	for i := range send {
		send[i] = int32((rank + 1) * (i + 1))
	}
	recv := make([]int32, n)
	next := (rank + 1) % size
	prev := (rank - 1 + size) % size

	sendFirst := !staggered || rank%2 == 0
	if sendFirst {
		if err := cm.SendI32(ctx, next, 0, send); err != nil {
			return nil, err
		}
	}
	if _, err := cm.RecvI32(ctx, prev, 0, recv); err != nil {
		return nil, err
	}
	if !sendFirst {
		if err := cm.SendI32(ctx, next, 0, send); err != nil {
			return nil, err
		}
	}
	return recv, nil
}
