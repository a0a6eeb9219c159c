// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distrib

import (
	"context"
	"fmt"

	"github.com/parlab/mandelpool/base/mpi"
	"golang.org/x/sync/errgroup"
)

// RunChannels runs the control process and its workers as goroutines
// linked by [Channels].
func RunChannels(ctx context.Context, policy Policy, c *Control) (Stats, error) {
	if err := Validate(c.Params, c.Workers); err != nil {
		return Stats{Policy: policy.String(), Rows: c.Params.Height, Workers: c.Workers}, err
	}
	ch := NewChannels(c.Workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range c.Workers {
		wk := &Worker{Index: w, Workers: c.Workers, Params: c.Params}
		g.Go(func() error {
			return wk.Run(ctx, policy, ch.Worker(w))
		})
	}
	var st Stats
	g.Go(func() error {
		var err error
		st, err = c.Run(ctx, policy, ch.Control())
		return err
	})
	err := g.Wait()
	return st, err
}

// RunComm runs one rank of the loop on a communicator of W+1 ranks:
// rank 0 runs the control process, and the others run a worker.
// The returned stats are only filled in on rank 0.
func RunComm(ctx context.Context, cm *mpi.Comm, policy Policy, c *Control) (Stats, error) {
	if cm.Size() != c.Workers+1 {
		return Stats{}, fmt.Errorf("%w: communicator has %d ranks, need %d workers + 1",
			ErrInvalidWorkers, cm.Size(), c.Workers)
	}
	if cm.IsRoot() {
		return c.Run(ctx, policy, NewCommControl(cm, c.Params.Width))
	}
	wk := &Worker{Index: cm.Rank() - 1, Workers: c.Workers, Params: c.Params}
	return Stats{}, wk.Run(ctx, policy, NewCommWorker(cm, c.Params.Width))
}

// RunWorld runs the control process and its workers on an
// in-process [mpi.World] of W+1 ranks.
func RunWorld(ctx context.Context, policy Policy, c *Control, opts ...mpi.Option) (Stats, error) {
	if err := Validate(c.Params, c.Workers); err != nil {
		return Stats{Policy: policy.String(), Rows: c.Params.Height, Workers: c.Workers}, err
	}
	var st Stats
	err := mpi.RunWorld(ctx, c.Workers+1, func(ctx context.Context, cm *mpi.Comm) error {
		s, err := RunComm(ctx, cm, policy, c)
		if cm.IsRoot() {
			st = s
		}
		return err
	}, opts...)
	return st, err
}
