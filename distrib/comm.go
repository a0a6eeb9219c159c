// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distrib

import (
	"context"
	"fmt"

	"github.com/parlab/mandelpool/base/mpi"
)

// RowTag is the message tag of row requests and row results.
const RowTag = 0

// WorkerRank returns the rank of worker w: rank 0 is
// the control process and the workers follow.
func WorkerRank(w int) int {
	return w + 1
}

// CommControl is a [ControlLink] over an [mpi.Comm] on rank 0.
// A row request is one int32, the row index or [Sentinel].
// A row result is width+1 int32 values: the row index, then the counts.
type CommControl struct {
	cm  *mpi.Comm
	buf []int32
}

// NewCommControl returns the control link for rows of the given width.
func NewCommControl(cm *mpi.Comm, width int) *CommControl {
	return &CommControl{cm: cm, buf: make([]int32, width+1)}
}

func (c *CommControl) Assign(ctx context.Context, worker, row int) error {
	return c.cm.SendI32(ctx, WorkerRank(worker), RowTag, []int32{int32(row)})
}

func (c *CommControl) Collect(ctx context.Context) (int, Row, error) {
	st, err := c.cm.RecvI32(ctx, mpi.AnySource, RowTag, c.buf)
	if err != nil {
		return 0, Row{}, err
	}
	w := st.Source - 1
	if st.Count < 1 {
		return w, Row{}, fmt.Errorf("distrib: empty row message from rank %d", st.Source)
	}
	row := Row{Index: int(c.buf[0]), Counts: append([]int32(nil), c.buf[1:st.Count]...)}
	return w, row, nil
}

// CommWorker is a [WorkerLink] over an [mpi.Comm] on the rank of a worker.
type CommWorker struct {
	cm  *mpi.Comm
	buf []int32
}

// NewCommWorker returns the worker link for rows of the given width.
func NewCommWorker(cm *mpi.Comm, width int) *CommWorker {
	return &CommWorker{cm: cm, buf: make([]int32, width+1)}
}

func (c *CommWorker) Next(ctx context.Context) (int, error) {
	var row [1]int32
	if _, err := c.cm.RecvI32(ctx, mpi.Root, RowTag, row[:]); err != nil {
		return 0, err
	}
	return int(row[0]), nil
}

func (c *CommWorker) Report(ctx context.Context, row Row) error {
	c.buf = append(c.buf[:0], int32(row.Index))
	c.buf = append(c.buf, row.Counts...)
	return c.cm.SendI32(ctx, mpi.Root, RowTag, c.buf)
}
