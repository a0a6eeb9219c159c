// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distrib

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parlab/mandelpool/mandel"
)

// Control is the control process: it hands out rows to the workers
// according to a [Policy], and writes the completed rows into the Grid.
type Control struct {

	// Params are the grid parameters, which must match the workers.
	Params mandel.Params

	// Workers is the number of workers, W.
	Workers int

	// Color colors the rows. Defaults to [mandel.Classic].
	Color mandel.ColorFunc

	// Grid receives the completed rows. If nil, Run creates one.
	Grid *mandel.Grid

	// OnRow, if set, is called after each row is written into the Grid.
	OnRow func(row Row)

	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

// Stats summarizes a completed run.
type Stats struct {
	Policy  string        `yaml:"policy"`
	Rows    int           `yaml:"rows"`
	Workers int           `yaml:"workers"`
	Elapsed time.Duration `yaml:"elapsed"`

	// RowsByWorker is the number of rows each worker computed.
	RowsByWorker []int `yaml:"rows_by_worker"`

	// MaxInFlight is the largest number of rows assigned at once
	// under the work pool policy.
	MaxInFlight int `yaml:"max_in_flight,omitempty"`
}

// Run runs the control process until every row has been received
// exactly once. The configuration is validated before anything is sent.
func (c *Control) Run(ctx context.Context, policy Policy, link ControlLink) (Stats, error) {
	st := Stats{Policy: policy.String(), Rows: c.Params.Height, Workers: c.Workers}
	if err := Validate(c.Params, c.Workers); err != nil {
		return st, err
	}
	if c.Color == nil {
		c.Color = mandel.Classic
	}
	if c.Grid == nil {
		c.Grid = mandel.NewGrid(c.Params.Width, c.Params.Height)
	}
	if c.Grid.Width() != c.Params.Width || c.Grid.Height() != c.Params.Height {
		return st, fmt.Errorf("%w: grid is %dx%d, parameters are %dx%d", mandel.ErrInvalidParams,
			c.Grid.Width(), c.Grid.Height(), c.Params.Width, c.Params.Height)
	}
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	st.RowsByWorker = make([]int, c.Workers)

	handle := func(w int, row Row) error {
		if w < 0 || w >= c.Workers {
			return fmt.Errorf("distrib: row %d from unknown worker %d", row.Index, w)
		}
		if err := c.Grid.SetRow(row.Index, row.Counts, c.Params.MaxIters, c.Color); err != nil {
			return fmt.Errorf("worker %d: %w", w, err)
		}
		st.RowsByWorker[w]++
		log.Debug("row received", "row", row.Index, "worker", w, "done", c.Grid.Done())
		if c.OnRow != nil {
			c.OnRow(row)
		}
		return nil
	}

	log.Info("control started", "policy", st.Policy, "workers", c.Workers,
		"width", c.Params.Width, "height", c.Params.Height, "max_iters", c.Params.MaxIters)
	start := time.Now()
	err := policy.control(ctx, c, link, &st, handle)
	st.Elapsed = time.Since(start)
	if err != nil {
		return st, err
	}
	log.Info("time taken", "elapsed", st.Elapsed, "rows_by_worker", st.RowsByWorker)
	return st, nil
}
