// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunWorld runs fn on every rank of a new [World] of the given size,
// each on its own goroutine, and waits for all of them to return.
// The first error cancels the context passed to the other ranks and
// closes the world, so that ranks blocked on it return too.
func RunWorld(ctx context.Context, size int, fn func(ctx context.Context, cm *Comm) error, opts ...Option) error {
	w := NewWorld(size, opts...)
	defer w.Close()
	g, ctx := errgroup.WithContext(ctx)
	for r := range size {
		cm := NewComm(w.Endpoint(r))
		g.Go(func() error {
			if err := fn(ctx, cm); err != nil {
				w.Close()
				return fmt.Errorf("rank %d: %w", r, err)
			}
			return nil
		})
	}
	return g.Wait()
}
