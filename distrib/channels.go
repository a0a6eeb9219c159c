// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distrib

import (
	"context"
	"fmt"
)

type completed struct {
	worker int
	row    Row
}

// Channels links a control process and its workers in memory:
// each worker has its own assignment channel, and all workers
// feed one shared completion channel.
type Channels struct {
	assign []chan int
	done   chan completed
}

// NewChannels returns links for the given number of workers.
func NewChannels(workers int) *Channels {
	ch := &Channels{
		assign: make([]chan int, workers),
		done:   make(chan completed, workers),
	}
	for i := range ch.assign {
		// room for one row and the sentinel
		ch.assign[i] = make(chan int, 2)
	}
	return ch
}

// Control returns the control process end.
func (ch *Channels) Control() ControlLink {
	return chanControl{ch}
}

// Worker returns the end of worker w.
func (ch *Channels) Worker(w int) WorkerLink {
	return chanWorker{ch: ch, index: w}
}

type chanControl struct {
	ch *Channels
}

func (c chanControl) Assign(ctx context.Context, worker, row int) error {
	if worker < 0 || worker >= len(c.ch.assign) {
		return fmt.Errorf("distrib: assign to unknown worker %d", worker)
	}
	select {
	case c.ch.assign[worker] <- row:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c chanControl) Collect(ctx context.Context) (int, Row, error) {
	select {
	case cp := <-c.ch.done:
		return cp.worker, cp.row, nil
	case <-ctx.Done():
		return 0, Row{}, ctx.Err()
	}
}

type chanWorker struct {
	ch    *Channels
	index int
}

func (c chanWorker) Next(ctx context.Context) (int, error) {
	select {
	case row := <-c.ch.assign[c.index]:
		return row, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (c chanWorker) Report(ctx context.Context, row Row) error {
	select {
	case c.ch.done <- completed{worker: c.index, row: row}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
