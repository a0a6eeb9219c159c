// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exercises

import (
	"context"
	"fmt"

	"github.com/parlab/mandelpool/base/mpi"
)

// VecDouble doubles the n values of a, which is only used on rank 0:
// rank 0 sends an equal segment to every other rank, each rank doubles
// its segment, and rank 0 collects the results, which it returns.
// n must be a multiple of the number of ranks.
func VecDouble(ctx context.Context, cm *mpi.Comm, n int, a []float32) ([]float32, error) {
	rank, size := cm.Rank(), cm.Size()
	if n%size != 0 {
		return nil, fmt.Errorf("%w: %d values do not divide among %d ranks", ErrSize, n, size)
	}
	local := n / size
	if rank != mpi.Root {
		seg := make([]float32, local)
		if _, err := mpi.Recv(ctx, cm, mpi.Root, 0, seg); err != nil {
			return nil, err
		}
		for i := range seg {
			seg[i] *= 2
		}
		return nil, mpi.Send(ctx, cm, mpi.Root, 0, seg)
	}

	if len(a) != n {
		return nil, fmt.Errorf("%w: have %d values, expected %d", ErrSize, len(a), n)
	}
	for p := 1; p < size; p++ {
		if err := mpi.Send(ctx, cm, p, 0, a[p*local:(p+1)*local]); err != nil {
			return nil, err
		}
	}
	b := make([]float32, n)
	for i := range local {
		b[i] = a[i] * 2
	}
	for p := 1; p < size; p++ {
		if _, err := mpi.Recv(ctx, cm, p, 0, b[p*local:(p+1)*local]); err != nil {
			return nil, err
		}
	}
	return b, nil
}
