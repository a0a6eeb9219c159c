// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		op   Op
		a, b []int32
		want []int32
	}{
		{OpSum, []int32{1, 2}, []int32{3, 4}, []int32{4, 6}},
		{OpMax, []int32{1, 5}, []int32{3, 4}, []int32{3, 5}},
		{OpMin, []int32{1, 5}, []int32{3, 4}, []int32{1, 4}},
		{OpProd, []int32{2, 5}, []int32{3, 4}, []int32{6, 20}},
		{OpLAND, []int32{0, 2}, []int32{3, 4}, []int32{0, 1}},
		{OpLOR, []int32{0, 0}, []int32{3, 0}, []int32{1, 0}},
		{OpBAND, []int32{6, 5}, []int32{3, 4}, []int32{2, 4}},
		{OpBOR, []int32{6, 5}, []int32{3, 2}, []int32{7, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			require.NoError(t, Combine(tt.op, tt.a, tt.b))
			assert.Equal(t, tt.want, tt.a)
		})
	}
	assert.Error(t, Combine(OpBAND, []float64{1}, []float64{1}))
	assert.Error(t, Combine(OpSum, []float64{1}, nil))
	assert.Equal(t, "Op(42)", Op(42).String())
}

func TestCollectives(t *testing.T) {
	for _, size := range []int{1, 2, 3, 4, 7} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			err := RunWorld(context.Background(), size, func(ctx context.Context, cm *Comm) error {
				rank := cm.Rank()

				bc := make([]float64, 2)
				if rank == Root {
					bc = []float64{1.5, 2.5}
				}
				if err := Bcast(ctx, cm, Root, bc); err != nil {
					return err
				}
				if bc[0] != 1.5 || bc[1] != 2.5 {
					return fmt.Errorf("bcast got %v", bc)
				}

				var all []int32
				if rank == Root {
					all = make([]int32, 2*size)
					for i := range all {
						all[i] = int32(i)
					}
				}
				mine := make([]int32, 2)
				if err := Scatter(ctx, cm, Root, all, mine); err != nil {
					return err
				}
				if mine[0] != int32(2*rank) || mine[1] != int32(2*rank+1) {
					return fmt.Errorf("scatter got %v", mine)
				}
				for i := range mine {
					mine[i] *= 2
				}
				var back []int32
				if rank == Root {
					back = make([]int32, 2*size)
				}
				if err := Gather(ctx, cm, Root, mine, back); err != nil {
					return err
				}
				if rank == Root {
					for i, v := range back {
						if v != int32(2*i) {
							return fmt.Errorf("gather got %v", back)
						}
					}
				}

				sum := make([]int64, 1)
				if err := AllReduce(ctx, cm, OpSum, []int64{int64(rank + 1)}, sum); err != nil {
					return err
				}
				if want := int64(size * (size + 1) / 2); sum[0] != want {
					return fmt.Errorf("allreduce sum %d, want %d", sum[0], want)
				}

				// reduce to a non-zero root
				root := size - 1
				mx := make([]int32, 1)
				if err := Reduce(ctx, cm, root, OpMax, []int32{int32(rank * 10)}, mx); err != nil {
					return err
				}
				if rank == root && mx[0] != int32((size-1)*10) {
					return fmt.Errorf("reduce max %d", mx[0])
				}
				return cm.Barrier(ctx)
			})
			require.NoError(t, err)
		})
	}
}

func TestScatterSizeError(t *testing.T) {
	w := NewWorld(1)
	defer w.Close()
	cm := NewComm(w.Endpoint(0))
	err := Scatter(context.Background(), cm, Root, []int32{1, 2, 3}, make([]int32, 2))
	assert.Error(t, err)
}
