// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exercises

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/parlab/mandelpool/base/mpi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelFor(t *testing.T) {
	for _, threads := range []int{1, 3, 8, 100} {
		hits := make([]int, 37)
		ParallelFor(len(hits), threads, func(i int) { hits[i]++ })
		for i, h := range hits {
			assert.Equal(t, 1, h, "index %d with %d threads", i, threads)
		}
	}
	ParallelFor(0, 4, func(i int) { t.Fatal("called on empty range") })
}

func TestCyclic(t *testing.T) {
	for _, size := range []int{2, 3, 4} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			err := mpi.RunWorld(context.Background(), size, func(ctx context.Context, cm *mpi.Comm) error {
				recv, err := Cyclic(ctx, cm, 1000, true)
				if err != nil {
					return err
				}
				prev := (cm.Rank() - 1 + size) % size
				for i, v := range recv {
					if v != int32((prev+1)*(i+1)) {
						return fmt.Errorf("rank %d value %d: %d", cm.Rank(), i, v)
					}
				}
				return nil
			}, mpi.WithEagerLimit(16))
			assert.NoError(t, err)
		})
	}
}

func TestCyclicDeadlock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := mpi.RunWorld(ctx, 3, func(ctx context.Context, cm *mpi.Comm) error {
		_, err := Cyclic(ctx, cm, 1000, false)
		return err
	}, mpi.WithEagerLimit(16))
	assert.Error(t, err)

	// small messages are buffered, so the unstaggered exchange completes
	err = mpi.RunWorld(context.Background(), 3, func(ctx context.Context, cm *mpi.Comm) error {
		_, err := Cyclic(ctx, cm, 2, false)
		return err
	})
	assert.NoError(t, err)
}

func TestTComm(t *testing.T) {
	mpi.Stdout = io.Discard
	defer func() { mpi.Stdout = os.Stdout }()

	var res TCommResult
	err := mpi.RunWorld(context.Background(), 3, func(ctx context.Context, cm *mpi.Comm) error {
		r, err := TComm(ctx, cm, TCommConfig{MinSize: 10, MaxSize: 100, Samples: 5})
		if cm.IsRoot() {
			res = r
		}
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 40, 80}, res.Sizes)
	assert.Len(t, res.Times, 4)

	err = mpi.RunWorld(context.Background(), 1, func(ctx context.Context, cm *mpi.Comm) error {
		_, err := TComm(ctx, cm, TCommConfig{MinSize: 10, MaxSize: 100, Samples: 5})
		return err
	})
	assert.ErrorIs(t, err, ErrSize)
}

func TestTree(t *testing.T) {
	for _, size := range []int{1, 2, 5, 8} {
		var got int
		err := mpi.RunWorld(context.Background(), size, func(ctx context.Context, cm *mpi.Comm) error {
			sum, err := Tree(ctx, cm)
			if cm.IsRoot() {
				got = sum
			}
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, size*(size-1)/2, got, "size %d", size)
	}
}

func TestVecDouble(t *testing.T) {
	a := make([]float32, 12)
	for i := range a {
		a[i] = float32(i) + 0.5
	}
	for _, size := range []int{1, 3, 4} {
		var got []float32
		err := mpi.RunWorld(context.Background(), size, func(ctx context.Context, cm *mpi.Comm) error {
			var in []float32
			if cm.IsRoot() {
				in = a
			}
			b, err := VecDouble(ctx, cm, len(a), in)
			if cm.IsRoot() {
				got = b
			}
			return err
		})
		require.NoError(t, err)
		require.Len(t, got, len(a))
		for i := range a {
			assert.Equal(t, 2*a[i], got[i])
		}
	}

	err := mpi.RunWorld(context.Background(), 5, func(ctx context.Context, cm *mpi.Comm) error {
		_, err := VecDouble(ctx, cm, 12, a)
		return err
	})
	assert.ErrorIs(t, err, ErrSize)
}

func TestHistogram(t *testing.T) {
	text := []byte("The quick brown fox jumps over the lazy dog. PACK MY BOX WITH FIVE DOZEN LIQUOR JUGS!")
	want := SerialHistogram(text)
	assert.Equal(t, int32(7), want[LetterCode('o')])

	for _, size := range []int{1, 2, 3, 4, 8} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			var got []int32
			err := mpi.RunWorld(context.Background(), size, func(ctx context.Context, cm *mpi.Comm) error {
				var in []byte
				if cm.IsRoot() {
					in = text
				}
				h, err := Histogram(ctx, cm, in)
				if cm.IsRoot() {
					got = h
				}
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLetterCode(t *testing.T) {
	assert.Equal(t, 0, LetterCode('a'))
	assert.Equal(t, 0, LetterCode('A'))
	assert.Equal(t, 25, LetterCode('z'))
	assert.Equal(t, -1, LetterCode(' '))
	assert.Equal(t, -1, LetterCode('['))
	assert.Equal(t, []byte("abc  "), PadText([]byte("abc"), 5))
	assert.Equal(t, []byte("abcd"), PadText([]byte("abcd"), 2))
}

func TestSet(t *testing.T) {
	s := NewSet(100, 4)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range 200 {
				s.Add((v*7 + g) % 150)
			}
		}()
	}
	wg.Wait()
	vals := s.Values()
	assert.Len(t, vals, 100)
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	assert.Len(t, slices.Compact(sorted), 100, "values are unique")

	assert.False(t, s.Add(1000), "set is full")
	v := vals[50]
	assert.True(t, s.Remove(v))
	assert.False(t, s.Remove(v))
	assert.Equal(t, 99, s.Len())
	assert.Equal(t, append(slices.Clone(vals[:50]), vals[51:]...), s.Values())
	assert.True(t, s.Add(1000))
	assert.False(t, s.Add(1000))
}

func TestSetSort(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 64} {
		s := NewSet(n, 3)
		r := rand.New(rand.NewPCG(1, uint64(n)))
		for s.Len() < n {
			s.Add(r.IntN(1000))
		}
		want := s.Values()
		slices.Sort(want)
		s.Sort()
		assert.Equal(t, want, s.Values(), "n = %d", n)
	}
}

func TestUpdateWeights(t *testing.T) {
	g := []float32{1, -2, 0.5}
	x := []float32{2, 3, 4, 5}
	w := make([]float32, len(g)*len(x))
	for i := range w {
		w[i] = float32(i)
	}
	want := slices.Clone(w)
	for i := range g {
		for j := range x {
			want[i*len(x)+j] += g[i] * x[j]
		}
	}
	require.NoError(t, UpdateWeights(g, x, w, 2))
	assert.InDeltaSlice(t, want, w, 1e-6)
	assert.ErrorIs(t, UpdateWeights(g, x, w[1:], 2), ErrSize)
}

func TestSaxpy(t *testing.T) {
	x := []float32{1, 2, 3, 4, 5}
	y := []float32{10, 20, 30, 40, 50}
	require.NoError(t, Saxpy(2, x, y, 3))
	assert.Equal(t, []float32{12, 24, 36, 48, 60}, y)
	assert.ErrorIs(t, Saxpy(2, x, y[1:], 3), ErrSize)
}
