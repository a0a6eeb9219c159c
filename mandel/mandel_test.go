// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mandel

import (
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
	for _, p := range []Params{
		{Width: 0, Height: 10, MaxIters: 10},
		{Width: 10, Height: -1, MaxIters: 10},
		{Width: 10, Height: 10, MaxIters: 0},
		{Width: 10, Height: 10, MaxIters: 1 << 32},
		{Width: 10, Height: 10, MaxIters: math.MaxInt32 + 1},
	} {
		assert.ErrorIs(t, p.Validate(), ErrInvalidParams, "%+v", p)
	}
	assert.NoError(t, Params{Width: 1, Height: 1, MaxIters: math.MaxInt32}.Validate())
}

func TestIterations(t *testing.T) {
	// the center pixel is the origin, which reaches the default limit
	assert.Equal(t, 300000, Params{Width: 200, Height: 200, MaxIters: 300000}.Iterations(100, 100))

	p := Params{Width: 200, Height: 200, MaxIters: 1000}

	// the origin never escapes
	assert.Equal(t, 1000, p.Iterations(100, 100))
	// -2-2i escapes on the first iteration
	assert.Equal(t, 1, p.Iterations(0, 0))
	// -1 is a period 2 point
	assert.Equal(t, 1000, p.Iterations(50, 100))

	for j := 0; j < p.Height; j += 7 {
		for i := 0; i < p.Width; i += 5 {
			n := p.Iterations(i, j)
			assert.GreaterOrEqual(t, n, 1)
			assert.LessOrEqual(t, n, p.MaxIters)
			assert.Equal(t, n, p.Iterations(i, j))
		}
	}

	p.MaxIters = 1
	assert.Equal(t, 1, p.Iterations(100, 100))
}

func TestRow(t *testing.T) {
	p := Params{Width: 16, Height: 8, MaxIters: 50}
	row := p.Row(3, nil)
	require.Len(t, row, 16)
	for i, n := range row {
		assert.Equal(t, int32(p.Iterations(i, 3)), n)
	}
	buf := make([]int32, 0, 32)
	again := p.Row(3, buf)
	assert.Equal(t, row, again)
	assert.Equal(t, 32, cap(again))
}

func TestPalettes(t *testing.T) {
	black := color.RGBA{0, 0, 0, 255}
	for _, nm := range PaletteNames() {
		cf, err := PaletteByName(nm)
		require.NoError(t, err)
		assert.Equal(t, black, cf(100, 100), nm)
		assert.Equal(t, cf(37, 100), cf(37, 100), nm)
		assert.Equal(t, uint8(255), cf(1, 100).A, nm)
	}
	_, err := PaletteByName("CLASSIC")
	assert.NoError(t, err)
	_, err = PaletteByName("plaid")
	assert.Error(t, err)

	assert.Equal(t, color.RGBA{255, 127, 51, 255}, Classic(10, 1000))
	assert.Equal(t, color.RGBA{229, 255, 102, 255}, Classic(20, 1000))
	assert.Equal(t, color.RGBA{153, 102, 255, 255}, Classic(50, 1000))

	assert.Len(t, wheel, WheelSize)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, Wheel(0, 1e6))
	assert.Equal(t, color.RGBA{255, 255, 0, 255}, Wheel(255, 1e6))
	assert.Equal(t, Wheel(3, 1e6), Wheel(WheelSize+3, 1e6))

	assert.Equal(t, color.RGBA{127, 127, 127, 255}, Gray(50, 100))
}

func TestGrid(t *testing.T) {
	p := Params{Width: 4, Height: 3, MaxIters: 20}
	g := NewGrid(p.Width, p.Height)
	assert.False(t, g.Complete())
	assert.Nil(t, g.Counts(1))

	row := p.Row(1, nil)
	require.NoError(t, g.SetRow(1, row, p.MaxIters, Classic))
	assert.Equal(t, 1, g.Done())
	assert.True(t, g.HasRow(1))
	assert.Equal(t, row, g.Counts(1))

	// row 1 is drawn at image row 3-1-1
	img := g.Image()
	assert.Equal(t, Classic(int(row[2]), p.MaxIters), img.RGBAAt(2, 1))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 0))

	assert.ErrorIs(t, g.SetRow(1, row, p.MaxIters, Classic), ErrDuplicateRow)
	assert.ErrorIs(t, g.SetRow(3, row, p.MaxIters, Classic), ErrRowRange)
	assert.ErrorIs(t, g.SetRow(-1, row, p.MaxIters, Classic), ErrRowRange)
	assert.ErrorIs(t, g.SetRow(0, row[:2], p.MaxIters, Classic), ErrRowRange)

	// counts outside [1, MaxIters] are rejected for every palette
	for _, bad := range []int32{-3, 0, int32(p.MaxIters) + 1} {
		for _, cf := range []ColorFunc{Classic, Wheel, Gray, Smooth} {
			counts := []int32{1, bad, 1, 1}
			assert.NotPanics(t, func() {
				assert.ErrorIs(t, g.SetRow(0, counts, p.MaxIters, cf), ErrRowRange, "count %d", bad)
			})
		}
	}
	assert.False(t, g.HasRow(0))
	assert.Equal(t, 1, g.Done())

	// the snapshot does not change with later rows
	require.NoError(t, g.SetRow(0, p.Row(0, nil), p.MaxIters, Classic))
	require.NoError(t, g.SetRow(2, p.Row(2, nil), p.MaxIters, Classic))
	assert.True(t, g.Complete())
	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 0))
}

func TestGridConcurrent(t *testing.T) {
	p := Params{Width: 32, Height: 32, MaxIters: 50}
	g := NewGrid(p.Width, p.Height)
	var wg sync.WaitGroup
	for j := range p.Height {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.SetRow(j, p.Row(j, nil), p.MaxIters, Wheel))
			g.Image()
		}()
	}
	wg.Wait()
	assert.True(t, g.Complete())
}
