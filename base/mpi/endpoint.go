// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"context"

	"github.com/parlab/mandelpool/base/errors"
)

const (
	// Root is the rank 0 node -- it is more semantic to use this
	Root int = 0

	// AnySource matches a message from any sender in a receive.
	AnySource int = -1

	// AnyTag matches a message with any user tag (>= 0) in a receive.
	AnyTag int = -1
)

var (
	// ErrClosed is returned by operations on a closed endpoint.
	ErrClosed = errors.New("mpi: endpoint closed")

	// ErrRank is returned when a rank is outside of [0, Size).
	ErrRank = errors.New("mpi: invalid rank")

	// ErrTruncate is returned when a received message is larger
	// than the buffer it is received into.
	ErrTruncate = errors.New("mpi: message truncated")
)

// Message is a received point-to-point message with its envelope.
type Message struct {

	// Source is the rank of the sender.
	Source int

	// Tag is the tag the message was sent with.
	Tag int

	// Data is the raw message payload.
	Data []byte
}

// Endpoint is the point-to-point transport for one rank.
// All calls block until complete or until the context is done.
// Messages between a given pair of ranks are delivered in order,
// and a receive always matches the earliest pending message that
// satisfies its source and tag, as in MPI.
type Endpoint interface {

	// Rank returns the rank of this endpoint, in [0, Size).
	Rank() int

	// Size returns the number of ranks in the group.
	Size() int

	// Send sends data to the dest rank with the given tag.
	// The data may be reused once Send returns.
	Send(ctx context.Context, dest, tag int, data []byte) error

	// Recv receives the next message matching source and tag,
	// either of which may be AnySource / AnyTag.
	Recv(ctx context.Context, source, tag int) (Message, error)

	// Close releases the endpoint. Pending and future receives fail.
	Close() error
}

// Status describes a completed receive.
type Status struct {

	// Source is the rank of the sender.
	Source int

	// Tag is the tag of the message.
	Tag int

	// Count is the number of elements received.
	Count int
}

func matches(m *Message, source, tag int) bool {
	if source != AnySource && m.Source != source {
		return false
	}
	if tag == AnyTag {
		return m.Tag >= 0
	}
	return m.Tag == tag
}
