// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package distrib distributes the rows of a Mandelbrot grid from one
// control process to W workers, either as fixed contiguous strips
// ([StaticPartition]) or one row at a time on demand ([WorkPool]).
//
// The control process and the workers only communicate through a
// [ControlLink] and [WorkerLinks], so the same loop runs over Go channels
// ([Channels]) or over message passing ([CommControl], [CommWorker]).
package distrib

import (
	"context"
	"fmt"

	"github.com/parlab/mandelpool/base/errors"
	"github.com/parlab/mandelpool/mandel"
)

// Sentinel is the row index that tells a work pool worker to exit.
const Sentinel = -1

// ErrInvalidWorkers is returned when the number of workers is not
// in [1, rows].
var ErrInvalidWorkers = errors.New("distrib: invalid number of workers")

// Row is a completed row: its index and its iteration counts.
type Row struct {
	Index  int
	Counts []int32
}

// ControlLink is the control process side of the communication.
type ControlLink interface {

	// Assign sends a row index, or [Sentinel], to a worker.
	Assign(ctx context.Context, worker, row int) error

	// Collect receives the next completed row from any worker,
	// returning the worker that computed it.
	Collect(ctx context.Context) (worker int, row Row, err error)
}

// WorkerLink is the worker side of the communication.
type WorkerLink interface {

	// Next receives the next row index to compute, or [Sentinel].
	Next(ctx context.Context) (int, error)

	// Report sends a completed row to the control process.
	Report(ctx context.Context, row Row) error
}

// Validate checks the number of workers against the grid.
func Validate(p mandel.Params, workers int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if workers < 1 || workers > p.Height {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidWorkers, workers, p.Height)
	}
	return nil
}

// Strip returns the half open range of rows [start, end) of worker w
// under a static partition of rows into equal strips of
// ceil(rows/workers) rows. The last strips are clipped to rows,
// and may be empty.
func Strip(rows, workers, w int) (start, end int) {
	per := (rows + workers - 1) / workers
	start = min(w*per, rows)
	end = min((w+1)*per, rows)
	return
}
