// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"context"
	"fmt"
	"sync"
)

// DefaultEagerLimit is the default largest message size in bytes that
// a [World] buffers without waiting for the matching receive.
const DefaultEagerLimit = 64 << 10

// World is an in-process group of ranks that communicate through
// per-rank mailboxes, for running a message passing program on
// goroutines instead of separate processes.
//
// Like a real MPI library, small messages are sent eagerly: Send copies
// them into the receiver's mailbox and returns. Messages larger than the
// eager limit use a rendezvous protocol: Send blocks until a matching
// receive takes the message. A cyclic pattern where every rank sends
// before it receives therefore deadlocks once messages are large enough.
type World struct {
	size      int
	eager     int
	boxes     []*mailbox
	done      chan struct{}
	closeOnce sync.Once
}

// Option is a functional option for [NewWorld].
type Option func(w *World)

// WithEagerLimit sets the eager limit in bytes. A negative limit
// buffers every message, and 0 makes every non-empty send a rendezvous.
func WithEagerLimit(n int) Option {
	return func(w *World) {
		w.eager = n
	}
}

// NewWorld returns a new world with the given number of ranks.
func NewWorld(size int, opts ...Option) *World {
	if size < 1 {
		panic(fmt.Sprintf("mpi.NewWorld: size must be at least 1, not %d", size))
	}
	w := &World{size: size, eager: DefaultEagerLimit, done: make(chan struct{})}
	for _, o := range opts {
		o(w)
	}
	w.boxes = make([]*mailbox, size)
	for i := range w.boxes {
		w.boxes[i] = newMailbox()
	}
	return w
}

// Size returns the number of ranks in the world.
func (w *World) Size() int {
	return w.size
}

// Endpoint returns the endpoint for the given rank.
func (w *World) Endpoint(rank int) Endpoint {
	if rank < 0 || rank >= w.size {
		panic(fmt.Sprintf("mpi.World.Endpoint: rank %d out of range [0, %d)", rank, w.size))
	}
	return &worldEndpoint{w: w, rank: rank}
}

// Close closes all mailboxes, failing any blocked operations.
func (w *World) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		for _, mb := range w.boxes {
			mb.close(ErrClosed)
		}
	})
	return nil
}

type worldEndpoint struct {
	w    *World
	rank int
}

func (ep *worldEndpoint) Rank() int { return ep.rank }

func (ep *worldEndpoint) Size() int { return ep.w.size }

func (ep *worldEndpoint) Send(ctx context.Context, dest, tag int, data []byte) error {
	if dest < 0 || dest >= ep.w.size {
		return fmt.Errorf("%w: send to %d from %d", ErrRank, dest, ep.rank)
	}
	env := &envelope{
		Message: Message{Source: ep.rank, Tag: tag, Data: append([]byte(nil), data...)},
		taken:   make(chan struct{}),
	}
	mb := ep.w.boxes[dest]
	if err := mb.put(env); err != nil {
		return err
	}
	if ep.w.eager < 0 || len(data) <= ep.w.eager {
		return nil
	}
	select {
	case <-env.taken:
		return nil
	case <-ep.w.done:
		return ErrClosed
	case <-ctx.Done():
		if mb.withdraw(env) {
			return ctx.Err()
		}
		return nil
	}
}

func (ep *worldEndpoint) Recv(ctx context.Context, source, tag int) (Message, error) {
	if source != AnySource && (source < 0 || source >= ep.w.size) {
		return Message{}, fmt.Errorf("%w: receive from %d on %d", ErrRank, source, ep.rank)
	}
	return ep.w.boxes[ep.rank].get(ctx, source, tag)
}

func (ep *worldEndpoint) Close() error {
	return nil
}
