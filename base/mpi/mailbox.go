// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"context"
	"sync"
)

// envelope is a pending message; taken is closed once a receive matches it.
type envelope struct {
	Message
	taken chan struct{}
}

// mailbox holds the pending incoming messages of one rank.
// Receives scan it in arrival order, which keeps the per-sender
// order of messages (MPI's non-overtaking rule).
type mailbox struct {
	mu      sync.Mutex
	pending []*envelope
	notify  chan struct{} // closed and replaced on every arrival
	err     error         // set once the mailbox is closed
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{})}
}

// put adds a message and wakes all waiting receivers.
func (mb *mailbox) put(env *envelope) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.err != nil {
		return mb.err
	}
	mb.pending = append(mb.pending, env)
	close(mb.notify)
	mb.notify = make(chan struct{})
	return nil
}

// withdraw removes env if no receive has taken it yet.
// It returns false if it was already taken.
func (mb *mailbox) withdraw(env *envelope) bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for i, e := range mb.pending {
		if e == env {
			mb.pending = append(mb.pending[:i], mb.pending[i+1:]...)
			return true
		}
	}
	return false
}

// get blocks until a message matching source and tag arrives.
func (mb *mailbox) get(ctx context.Context, source, tag int) (Message, error) {
	for {
		mb.mu.Lock()
		for i, e := range mb.pending {
			if !matches(&e.Message, source, tag) {
				continue
			}
			mb.pending = append(mb.pending[:i], mb.pending[i+1:]...)
			mb.mu.Unlock()
			close(e.taken)
			return e.Message, nil
		}
		if mb.err != nil {
			err := mb.err
			mb.mu.Unlock()
			return Message{}, err
		}
		wait := mb.notify
		mb.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// close fails all current and future receives with err,
// once no pending message matches them.
func (mb *mailbox) close(err error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.err != nil {
		return
	}
	mb.err = err
	close(mb.notify)
	mb.notify = make(chan struct{})
}
