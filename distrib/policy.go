// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distrib

import (
	"context"
	"fmt"
	"strings"
)

// Policy is a strategy for assigning rows to workers.
// It drives both sides of the loop.
type Policy interface {
	fmt.Stringer

	// control runs the control process side, calling handle
	// for every completed row.
	control(ctx context.Context, c *Control, link ControlLink, st *Stats, handle func(worker int, row Row) error) error

	// work runs the worker side.
	work(ctx context.Context, w *Worker, link WorkerLink) error
}

// StaticPartition gives each worker one contiguous strip of rows
// (see [Strip]) up front. There are no assignment messages: workers
// compute their strip and exit.
type StaticPartition struct{}

func (StaticPartition) String() string { return "static" }

func (StaticPartition) control(ctx context.Context, c *Control, link ControlLink, st *Stats, handle func(int, Row) error) error {
	for range c.Params.Height {
		w, row, err := link.Collect(ctx)
		if err != nil {
			return err
		}
		if err := handle(w, row); err != nil {
			return err
		}
	}
	return nil
}

func (StaticPartition) work(ctx context.Context, w *Worker, link WorkerLink) error {
	start, end := Strip(w.Params.Height, w.Workers, w.Index)
	for j := start; j < end; j++ {
		if err := link.Report(ctx, Row{Index: j, Counts: w.Params.Row(j, nil)}); err != nil {
			return err
		}
	}
	return nil
}

// WorkPool hands out one row at a time: every worker gets one initial
// row, and a new one each time it reports a completed row, until no rows
// are left. Once all rows are in, every worker is sent the [Sentinel].
type WorkPool struct{}

func (WorkPool) String() string { return "pool" }

func (WorkPool) control(ctx context.Context, c *Control, link ControlLink, st *Stats, handle func(int, Row) error) error {
	d := NewDispatcher(c.Params.Height, c.Workers)
	send := func(as []Assignment) error {
		for _, a := range as {
			if err := link.Assign(ctx, a.Worker, a.Row); err != nil {
				return fmt.Errorf("assign row %d to worker %d: %w", a.Row, a.Worker, err)
			}
		}
		return nil
	}
	if err := send(d.Start()); err != nil {
		return err
	}
	defer func() { st.MaxInFlight = d.MaxInFlight() }()
	for !d.Terminated() {
		w, row, err := link.Collect(ctx)
		if err != nil {
			return err
		}
		next, err := d.Completed(w, row.Index)
		if err != nil {
			return err
		}
		if err := handle(w, row); err != nil {
			return err
		}
		if err := send(next); err != nil {
			return err
		}
	}
	return nil
}

func (WorkPool) work(ctx context.Context, w *Worker, link WorkerLink) error {
	for {
		j, err := link.Next(ctx)
		if err != nil {
			return err
		}
		if j == Sentinel {
			return nil
		}
		if j < 0 || j >= w.Params.Height {
			return fmt.Errorf("worker %d: assigned row %d not in [0, %d)", w.Index, j, w.Params.Height)
		}
		if err := link.Report(ctx, Row{Index: j, Counts: w.Params.Row(j, nil)}); err != nil {
			return err
		}
	}
}

// ParsePolicy returns the policy with the given name:
// "static" or "pool".
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "static", "strip":
		return StaticPartition{}, nil
	case "pool", "workpool", "dynamic":
		return WorkPool{}, nil
	}
	return nil, fmt.Errorf("distrib: unknown policy %q (want static or pool)", name)
}
