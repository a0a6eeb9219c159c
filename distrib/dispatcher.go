// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distrib

import "fmt"

// Assignment is a row index, or [Sentinel], to send to a worker.
type Assignment struct {
	Worker int
	Row    int
}

// Dispatcher is the bookkeeping of the [WorkPool] control process,
// separate from any communication. It keeps a cursor over the rows
// and the number of rows in flight, and issues the sentinels only
// once the cursor is at the end and nothing is in flight.
type Dispatcher struct {
	rows, workers int
	cursor        int
	inFlight      int
	maxInFlight   int
	terminated    bool

	// busy is the row assigned to each worker, or -1 if it has none.
	busy []int
}

// NewDispatcher returns a dispatcher for the given number of rows and workers.
func NewDispatcher(rows, workers int) *Dispatcher {
	d := &Dispatcher{rows: rows, workers: workers, busy: make([]int, workers)}
	for w := range d.busy {
		d.busy[w] = -1
	}
	return d
}

// Start returns the initial assignments: one row for each worker.
func (d *Dispatcher) Start() []Assignment {
	var as []Assignment
	for w := range d.workers {
		as = d.assign(as, w)
	}
	return d.finish(as)
}

// Completed records that worker w finished row j, which must be the
// row assigned to it, and returns what to send next: the next row for w,
// or the sentinels for all workers once the last row is in.
func (d *Dispatcher) Completed(w, j int) ([]Assignment, error) {
	if w < 0 || w >= d.workers {
		return nil, fmt.Errorf("distrib: row %d from unknown worker %d", j, w)
	}
	switch d.busy[w] {
	case -1:
		return nil, fmt.Errorf("distrib: row %d from worker %d, which has no row assigned", j, w)
	case j:
	default:
		return nil, fmt.Errorf("distrib: row %d from worker %d, which was assigned row %d", j, w, d.busy[w])
	}
	d.busy[w] = -1
	d.inFlight--
	return d.finish(d.assign(nil, w)), nil
}

func (d *Dispatcher) assign(as []Assignment, w int) []Assignment {
	if d.cursor >= d.rows {
		return as
	}
	as = append(as, Assignment{Worker: w, Row: d.cursor})
	d.busy[w] = d.cursor
	d.cursor++
	d.inFlight++
	d.maxInFlight = max(d.maxInFlight, d.inFlight)
	return as
}

func (d *Dispatcher) finish(as []Assignment) []Assignment {
	if d.terminated || d.cursor < d.rows || d.inFlight > 0 {
		return as
	}
	d.terminated = true
	for w := range d.workers {
		as = append(as, Assignment{Worker: w, Row: Sentinel})
	}
	return as
}

// Terminated returns true once the sentinels have been issued.
func (d *Dispatcher) Terminated() bool { return d.terminated }

// InFlight returns the number of rows assigned but not yet completed.
func (d *Dispatcher) InFlight() int { return d.inFlight }

// MaxInFlight returns the largest number of rows ever in flight.
func (d *Dispatcher) MaxInFlight() int { return d.maxInFlight }
