// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distrib

import (
	"context"
	"fmt"

	"github.com/parlab/mandelpool/mandel"
)

// Worker computes rows for the control process.
type Worker struct {

	// Index is the worker number, in [0, Workers).
	Index int

	// Workers is the total number of workers, W.
	Workers int

	// Params are the grid parameters, which must match the control process.
	Params mandel.Params
}

// Run runs the worker until its strip is done (static) or it
// receives the [Sentinel] (work pool).
func (w *Worker) Run(ctx context.Context, policy Policy, link WorkerLink) error {
	if err := Validate(w.Params, w.Workers); err != nil {
		return err
	}
	if w.Index < 0 || w.Index >= w.Workers {
		return fmt.Errorf("%w: worker index %d not in [0, %d)", ErrInvalidWorkers, w.Index, w.Workers)
	}
	return policy.work(ctx, w, link)
}
