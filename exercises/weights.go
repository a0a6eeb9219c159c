// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exercises

import "fmt"

// UpdateWeights adds the outer product of gradients (N) and inputs (M)
// to the N x M row-major weights: w[i*M+j] += g[i]*x[j].
// Each row is one work item, run on up to threads goroutines.
func UpdateWeights(gradients, inputs, weights []float32, threads int) error {
	n, m := len(gradients), len(inputs)
	if len(weights) != n*m {
		return fmt.Errorf("%w: %d weights for %d gradients and %d inputs", ErrSize, len(weights), n, m)
	}
	ParallelFor(n, threads, func(i int) {
		g := gradients[i]
		row := weights[i*m : (i+1)*m]
		for j, x := range inputs {
			row[j] += g * x
		}
	})
	return nil
}

// Saxpy sets y = a*x + y, in parallel.
func Saxpy(a float32, x, y []float32, threads int) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: x has %d values, y has %d", ErrSize, len(x), len(y))
	}
	ParallelFor(len(x), threads, func(i int) {
		y[i] += a * x[i]
	})
	return nil
}
