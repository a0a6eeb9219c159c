// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mpi provides message passing between a fixed group of ranks,
// with an API modeled on MPI: point-to-point sends and receives with
// source and tag matching, and the common collectives built on them.
//
// The transport is pluggable through [Endpoint]: a [World] runs all ranks
// as goroutines of one process, and a [Hub] with [Dial] connects separate
// processes over websockets. All blocking calls take a context, which is
// the only way to abandon a call that would otherwise block forever.
package mpi

import (
	"context"
	"fmt"
)

// Comm is the communicator -- all communication operates as methods
// on this struct, or as generic functions taking it. It wraps the
// [Endpoint] of this rank.
type Comm struct {
	ep Endpoint

	// PrintAllProcs causes Printf and Println to print on all ranks,
	// prefixed with the rank; otherwise they only print on [Root].
	PrintAllProcs bool
}

// NewComm creates a new communicator on the given endpoint.
func NewComm(ep Endpoint) *Comm {
	return &Comm{ep: ep}
}

// Rank returns the rank/ID for this proc
func (cm *Comm) Rank() int {
	return cm.ep.Rank()
}

// Size returns the number of procs in this communicator
func (cm *Comm) Size() int {
	return cm.ep.Size()
}

// IsRoot returns true on the [Root] rank.
func (cm *Comm) IsRoot() bool {
	return cm.ep.Rank() == Root
}

// Endpoint returns the underlying transport endpoint.
func (cm *Comm) Endpoint() Endpoint {
	return cm.ep
}

// Close closes the underlying endpoint.
func (cm *Comm) Close() error {
	return cm.ep.Close()
}

// SendI32 sends values to toProc, using given unique tag identifier.
// This is Blocking. Must have a corresponding Recv call with same tag on toProc, from this proc
func (cm *Comm) SendI32(ctx context.Context, toProc, tag int, vals []int32) error {
	return Send(ctx, cm, toProc, tag, vals)
}

// RecvI32 receives values from proc fmProc, using given unique tag identifier.
// fmProc may be [AnySource]; the returned [Status] has the actual sender
// and the number of values received into vals.
// This is Blocking. Must have a corresponding Send call with same tag on fmProc, to this proc
func (cm *Comm) RecvI32(ctx context.Context, fmProc, tag int, vals []int32) (Status, error) {
	return Recv(ctx, cm, fmProc, tag, vals)
}

// SendF64 sends values to toProc, using given unique tag identifier.
func (cm *Comm) SendF64(ctx context.Context, toProc, tag int, vals []float64) error {
	return Send(ctx, cm, toProc, tag, vals)
}

// RecvF64 receives values from proc fmProc, using given unique tag identifier.
func (cm *Comm) RecvF64(ctx context.Context, fmProc, tag int, vals []float64) (Status, error) {
	return Recv(ctx, cm, fmProc, tag, vals)
}

// Barrier forces synchronisation: no rank returns
// until every rank has called Barrier.
func (cm *Comm) Barrier(ctx context.Context) error {
	size, rank := cm.Size(), cm.Rank()
	if size == 1 {
		return nil
	}
	if rank != Root {
		if err := cm.ep.Send(ctx, Root, tagBarrier, nil); err != nil {
			return err
		}
		_, err := cm.ep.Recv(ctx, Root, tagBarrier)
		return err
	}
	for p := 1; p < size; p++ {
		if _, err := cm.ep.Recv(ctx, p, tagBarrier); err != nil {
			return err
		}
	}
	for p := 1; p < size; p++ {
		if err := cm.ep.Send(ctx, p, tagBarrier, nil); err != nil {
			return err
		}
	}
	return nil
}

func (cm *Comm) checkRank(rank int) error {
	if rank < 0 || rank >= cm.Size() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrRank, rank, cm.Size())
	}
	return nil
}
