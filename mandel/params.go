// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mandel computes Mandelbrot iteration counts over a fixed pixel
// grid on the square [-2, 2] x [-2, 2] of the complex plane, colors them,
// and accumulates computed rows into an image.
package mandel

import (
	"fmt"
	"math"

	"github.com/parlab/mandelpool/base/errors"
)

// ErrInvalidParams is returned by [Params.Validate].
var ErrInvalidParams = errors.New("mandel: invalid parameters")

// Params are the grid dimensions and iteration limit.
type Params struct {

	// Width is the number of pixels in each row.
	Width int `default:"200" flag:"width,w"`

	// Height is the number of rows.
	Height int `default:"200" flag:"height"`

	// MaxIters is the iteration limit: points that have not escaped
	// after MaxIters iterations are considered inside the set.
	MaxIters int `default:"300000" flag:"max-iters,iters"`
}

// DefaultParams returns the default parameters.
func DefaultParams() Params {
	return Params{Width: 200, Height: 200, MaxIters: 300000}
}

// Validate returns an error wrapping [ErrInvalidParams]
// unless all parameters are positive. MaxIters must also fit
// in the int32 counts of a [Params.Row].
func (p Params) Validate() error {
	switch {
	case p.Width < 1:
		return fmt.Errorf("%w: width %d < 1", ErrInvalidParams, p.Width)
	case p.Height < 1:
		return fmt.Errorf("%w: height %d < 1", ErrInvalidParams, p.Height)
	case p.MaxIters < 1:
		return fmt.Errorf("%w: max iterations %d < 1", ErrInvalidParams, p.MaxIters)
	case p.MaxIters > math.MaxInt32:
		return fmt.Errorf("%w: max iterations %d > %d", ErrInvalidParams, p.MaxIters, math.MaxInt32)
	}
	return nil
}

// Iterations returns the number of iterations of z = z*z + c, from z = 0,
// for the point c of pixel (i, j), stopping once |z| >= 2 or after
// MaxIters iterations. The result is in [1, MaxIters].
func (p Params) Iterations(i, j int) int {
	cx := -2 + 4*float64(i)/float64(p.Width)
	cy := -2 + 4*float64(j)/float64(p.Height)
	var zx, zy float64
	n := 0
	for {
		zx, zy = zx*zx-zy*zy+cx, 2*zx*zy+cy
		n++
		if n >= p.MaxIters || zx*zx+zy*zy >= 4 {
			return n
		}
	}
}

// Row computes the Width iteration counts of row j into dst,
// which is grown if needed, and returns it.
func (p Params) Row(j int, dst []int32) []int32 {
	if cap(dst) < p.Width {
		dst = make([]int32, p.Width)
	}
	dst = dst[:p.Width]
	for i := range dst {
		dst[i] = int32(p.Iterations(i, j))
	}
	return dst
}
