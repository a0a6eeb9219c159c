// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exercises

import (
	"bytes"
	"context"

	"github.com/parlab/mandelpool/base/mpi"
)

// Letters is the number of histogram bins, one per letter.
const Letters = 26

// LetterCode returns the bin of a letter, case insensitive,
// or -1 if c is not a letter.
func LetterCode(c byte) int {
	switch {
	case c >= 'a' && c <= 'z':
		return int(c - 'a')
	case c >= 'A' && c <= 'Z':
		return int(c - 'A')
	}
	return -1
}

// SerialHistogram counts the letters of text.
func SerialHistogram(text []byte) []int32 {
	hist := make([]int32, Letters)
	for _, c := range text {
		if lc := LetterCode(c); lc >= 0 {
			hist[lc]++
		}
	}
	return hist
}

// PadText pads text with spaces to a multiple of n bytes.
func PadText(text []byte, n int) []byte {
	if r := len(text) % n; r != 0 {
		text = append(bytes.Clone(text), bytes.Repeat([]byte{' '}, n-r)...)
	}
	return text
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Histogram counts the letters of text, which is only used on rank 0,
// across all ranks. Rank 0 pads the text to a multiple of the number of
// ranks and sends the per-rank length to every rank, by a doubling tree
// when the number of ranks is a power of two and by broadcast otherwise.
// The text is then scattered, counted locally and the counts summed on
// rank 0, which returns the histogram. The other ranks return nil.
func Histogram(ctx context.Context, cm *mpi.Comm, text []byte) ([]int32, error) {
	rank, size := cm.Rank(), cm.Size()
	var padded []byte
	per := make([]int32, 1)
	if rank == mpi.Root {
		padded = PadText(text, size)
		per[0] = int32(len(padded) / size)
	}

	if isPowerOfTwo(size) && size > 1 {
		// at level lev, ranks [0, 2^(lev-1)) send to rank + 2^(lev-1)
		for lev := 1; 1<<lev <= size; lev++ {
			half := 1 << (lev - 1)
			switch {
			case rank < half:
				if err := cm.SendI32(ctx, rank+half, 1, per); err != nil {
					return nil, err
				}
			case rank < 2*half:
				if _, err := cm.RecvI32(ctx, rank-half, 1, per); err != nil {
					return nil, err
				}
			}
		}
	} else if err := mpi.Bcast(ctx, cm, mpi.Root, per); err != nil {
		return nil, err
	}

	local := make([]uint8, per[0])
	if err := mpi.Scatter(ctx, cm, mpi.Root, padded, local); err != nil {
		return nil, err
	}
	counts := SerialHistogram(local)
	var hist []int32
	if rank == mpi.Root {
		hist = make([]int32, Letters)
	}
	if err := mpi.Reduce(ctx, cm, mpi.Root, mpi.OpSum, counts, hist); err != nil {
		return nil, err
	}
	return hist, nil
}
