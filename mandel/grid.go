// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mandel

import (
	"fmt"
	"image"
	"sync"

	"github.com/parlab/mandelpool/base/errors"
)

var (
	// ErrRowRange is returned for a row index outside of the grid,
	// a row of the wrong length, or a count outside [1, maxIters].
	ErrRowRange = errors.New("mandel: row out of range")

	// ErrDuplicateRow is returned when a row is set twice.
	ErrDuplicateRow = errors.New("mandel: duplicate row")
)

// Grid accumulates computed rows: the iteration counts and the
// colored image. It is safe for concurrent use, so the image can be
// read while rows are still arriving.
//
// Row j of the grid has imaginary part -2 + 4j/Height, so it is drawn
// at image row Height-1-j, with the positive imaginary axis upward.
type Grid struct {
	mu     sync.RWMutex
	width  int
	height int
	counts [][]int32
	done   int
	img    *image.RGBA
}

// NewGrid returns an empty grid of the given size.
func NewGrid(width, height int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		counts: make([][]int32, height),
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Width returns the number of pixels per row.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// SetRow stores the counts of row j and colors it with cf.
// Every count must be in [1, maxIters].
func (g *Grid) SetRow(j int, counts []int32, maxIters int, cf ColorFunc) error {
	if j < 0 || j >= g.height {
		return fmt.Errorf("%w: row %d not in [0, %d)", ErrRowRange, j, g.height)
	}
	if len(counts) != g.width {
		return fmt.Errorf("%w: row %d has %d values, want %d", ErrRowRange, j, len(counts), g.width)
	}
	for i, n := range counts {
		if n < 1 || int(n) > maxIters {
			return fmt.Errorf("%w: row %d pixel %d has count %d, not in [1, %d]", ErrRowRange, j, i, n, maxIters)
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counts[j] != nil {
		return fmt.Errorf("%w: %d", ErrDuplicateRow, j)
	}
	g.counts[j] = append([]int32(nil), counts...)
	g.done++
	y := g.height - 1 - j
	for i, n := range counts {
		g.img.SetRGBA(i, y, cf(int(n), maxIters))
	}
	return nil
}

// Done returns the number of rows set so far.
func (g *Grid) Done() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.done
}

// Complete returns true once every row has been set.
func (g *Grid) Complete() bool {
	return g.Done() == g.height
}

// HasRow returns true if row j has been set.
func (g *Grid) HasRow(j int) bool {
	if j < 0 || j >= g.height {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.counts[j] != nil
}

// Counts returns a copy of the iteration counts of row j,
// or nil if it has not been set.
func (g *Grid) Counts(j int) []int32 {
	if j < 0 || j >= g.height {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.counts[j] == nil {
		return nil
	}
	return append([]int32(nil), g.counts[j]...)
}

// Image returns a snapshot copy of the image. Rows that have not been
// set are transparent.
func (g *Grid) Image() *image.RGBA {
	g.mu.RLock()
	defer g.mu.RUnlock()
	img := image.NewRGBA(g.img.Rect)
	copy(img.Pix, g.img.Pix)
	return img
}
