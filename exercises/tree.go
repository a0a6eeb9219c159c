// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exercises

import (
	"context"

	"github.com/parlab/mandelpool/base/mpi"
)

// Tree sums the ranks up a binary tree: rank r receives the sums of
// its children 2r+1 and 2r+2, adds its own rank, and sends the total
// to its parent (r-1)/2. Rank 0 returns size*(size-1)/2, the other
// ranks return the sum of their subtree.
func Tree(ctx context.Context, cm *mpi.Comm) (int, error) {
	rank, size := cm.Rank(), cm.Size()
	sum := int64(rank)
	buf := make([]int64, 1)
	for _, child := range []int{2*rank + 1, 2*rank + 2} {
		if child >= size {
			continue
		}
		if _, err := mpi.Recv(ctx, cm, child, 0, buf); err != nil {
			return 0, err
		}
		sum += buf[0]
	}
	if rank != mpi.Root {
		if err := mpi.Send(ctx, cm, (rank-1)/2, 0, []int64{sum}); err != nil {
			return 0, err
		}
	}
	return int(sum), nil
}
