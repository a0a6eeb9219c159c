// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mandel

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorFunc maps an iteration count to a pixel color.
// It must be a pure function.
type ColorFunc func(iters, maxIters int) color.RGBA

var black = color.RGBA{0, 0, 0, 255}

// Classic cycles the red, green and blue channels with periods
// 11, 21 and 51. Points that never escape are black.
func Classic(iters, maxIters int) color.RGBA {
	if iters >= maxIters {
		return black
	}
	return color.RGBA{
		R: uint8(iters % 11 * 255 / 10),
		G: uint8(iters % 21 * 255 / 20),
		B: uint8(iters % 51 * 255 / 50),
		A: 255,
	}
}

// wheel is the fully saturated color wheel, one entry per
// step of a single channel: red, yellow, green, cyan, blue, magenta.
var wheel = func() []color.RGBA {
	w := make([]color.RGBA, 0, 6*255)
	for k := range 255 {
		w = append(w, color.RGBA{255, uint8(k), 0, 255})
	}
	for k := range 255 {
		w = append(w, color.RGBA{uint8(255 - k), 255, 0, 255})
	}
	for k := range 255 {
		w = append(w, color.RGBA{0, 255, uint8(k), 255})
	}
	for k := range 255 {
		w = append(w, color.RGBA{0, uint8(255 - k), 255, 255})
	}
	for k := range 255 {
		w = append(w, color.RGBA{uint8(k), 0, 255, 255})
	}
	for k := range 255 {
		w = append(w, color.RGBA{255, 0, uint8(255 - k), 255})
	}
	return w
}()

// WheelSize is the number of colors in the [Wheel] palette.
const WheelSize = 6 * 255

// Wheel walks around the color wheel, one step per iteration.
func Wheel(iters, maxIters int) color.RGBA {
	if iters >= maxIters {
		return black
	}
	return wheel[iters%WheelSize]
}

// Gray maps iterations linearly from black to white.
func Gray(iters, maxIters int) color.RGBA {
	if iters >= maxIters {
		return black
	}
	v := uint8(255 * iters / maxIters)
	return color.RGBA{v, v, v, 255}
}

var (
	smoothFrom, _ = colorful.Hex("#000764")
	smoothTo, _   = colorful.Hex("#ffaa00")
)

// Smooth blends from deep blue to orange in the HCL color space,
// on a logarithmic scale of the iteration count.
func Smooth(iters, maxIters int) color.RGBA {
	if iters >= maxIters {
		return black
	}
	t := 0.0
	if maxIters > 1 {
		t = logScale(iters, maxIters)
	}
	r, g, b := smoothFrom.BlendHcl(smoothTo, t).Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

func logScale(iters, maxIters int) float64 {
	return math.Log(float64(iters)) / math.Log(float64(maxIters))
}

var palettes = map[string]ColorFunc{
	"classic": Classic,
	"wheel":   Wheel,
	"gray":    Gray,
	"smooth":  Smooth,
}

// PaletteNames returns the sorted names accepted by [PaletteByName].
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for nm := range palettes {
		names = append(names, nm)
	}
	slices.Sort(names)
	return names
}

// PaletteByName returns the palette with the given name (case insensitive).
func PaletteByName(name string) (ColorFunc, error) {
	if cf, ok := palettes[strings.ToLower(name)]; ok {
		return cf, nil
	}
	return nil, fmt.Errorf("mandel: unknown palette %q (have %s)", name, strings.Join(PaletteNames(), ", "))
}
