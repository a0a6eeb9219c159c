// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"context"
	"fmt"
)

// Bcast broadcasts vals from root to all other ranks.
// On the other ranks, vals must have the same length as on root.
func Bcast[T Number](ctx context.Context, cm *Comm, root int, vals []T) error {
	if err := cm.checkRank(root); err != nil {
		return err
	}
	if cm.Rank() != root {
		st, err := Recv(ctx, cm, root, tagBcast, vals)
		if err != nil {
			return err
		}
		return countMatch("Bcast", st.Count, len(vals))
	}
	data := encode(vals)
	for p := range cm.Size() {
		if p == root {
			continue
		}
		if err := cm.ep.Send(ctx, p, tagBcast, data); err != nil {
			return err
		}
	}
	return nil
}

// Scatter sends consecutive segments of send on root, each len(recv)
// long, to each rank in rank order; every rank receives its segment
// into recv. send is only used on root and must have Size() * len(recv)
// elements.
func Scatter[T Number](ctx context.Context, cm *Comm, root int, send, recv []T) error {
	if err := cm.checkRank(root); err != nil {
		return err
	}
	n := len(recv)
	if cm.Rank() != root {
		st, err := Recv(ctx, cm, root, tagScatter, recv)
		if err != nil {
			return err
		}
		return countMatch("Scatter", st.Count, n)
	}
	if len(send) != n*cm.Size() {
		return fmt.Errorf("mpi.Scatter: send has %d elements, need %d * %d", len(send), cm.Size(), n)
	}
	for p := range cm.Size() {
		seg := send[p*n : (p+1)*n]
		if p == root {
			copy(recv, seg)
			continue
		}
		if err := cm.ep.Send(ctx, p, tagScatter, encode(seg)); err != nil {
			return err
		}
	}
	return nil
}

// Gather collects send from every rank into recv on root, in rank order.
// recv is only used on root and must have Size() * len(send) elements.
func Gather[T Number](ctx context.Context, cm *Comm, root int, send, recv []T) error {
	if err := cm.checkRank(root); err != nil {
		return err
	}
	n := len(send)
	if cm.Rank() != root {
		return cm.ep.Send(ctx, root, tagGather, encode(send))
	}
	if len(recv) != n*cm.Size() {
		return fmt.Errorf("mpi.Gather: recv has %d elements, need %d * %d", len(recv), cm.Size(), n)
	}
	for p := range cm.Size() {
		seg := recv[p*n : (p+1)*n]
		if p == root {
			copy(seg, send)
			continue
		}
		st, err := Recv(ctx, cm, p, tagGather, seg)
		if err != nil {
			return err
		}
		if err := countMatch("Gather", st.Count, n); err != nil {
			return err
		}
	}
	return nil
}

// Reduce combines send from every rank with op, elementwise, into recv
// on root. The ranks form a binary tree relative to root: rank r
// (relative) receives from 2r+1 and 2r+2 and sends to (r-1)/2.
// recv is only used on root and must have the length of send.
func Reduce[T Number](ctx context.Context, cm *Comm, root int, op Op, send, recv []T) error {
	if err := cm.checkRank(root); err != nil {
		return err
	}
	size := cm.Size()
	rel := (cm.Rank() - root + size) % size
	acc := append([]T(nil), send...)
	buf := make([]T, len(send))
	for _, child := range []int{2*rel + 1, 2*rel + 2} {
		if child >= size {
			continue
		}
		st, err := Recv(ctx, cm, (child+root)%size, tagReduce, buf)
		if err != nil {
			return err
		}
		if err := countMatch("Reduce", st.Count, len(buf)); err != nil {
			return err
		}
		if err := Combine(op, acc, buf); err != nil {
			return err
		}
	}
	if rel == 0 {
		if len(recv) != len(send) {
			return fmt.Errorf("mpi.Reduce: recv has %d elements, need %d", len(recv), len(send))
		}
		copy(recv, acc)
		return nil
	}
	parent := ((rel-1)/2 + root) % size
	return cm.ep.Send(ctx, parent, tagReduce, encode(acc))
}

// AllReduce is a [Reduce] to [Root] followed by a [Bcast] of the result,
// so every rank gets the combined values in recv.
func AllReduce[T Number](ctx context.Context, cm *Comm, op Op, send, recv []T) error {
	if len(recv) != len(send) {
		return fmt.Errorf("mpi.AllReduce: recv has %d elements, need %d", len(recv), len(send))
	}
	if err := Reduce(ctx, cm, Root, op, send, recv); err != nil {
		return err
	}
	return Bcast(ctx, cm, Root, recv)
}

func countMatch(name string, got, want int) error {
	if got != want {
		return fmt.Errorf("mpi.%s: received %d elements, expected %d", name, got, want)
	}
	return nil
}
