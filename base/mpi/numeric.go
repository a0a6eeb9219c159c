// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
)

// Number is the set of fixed size element types that can be sent.
type Number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// tags below AnyTag are reserved for collectives
const (
	tagBarrier = -2 - iota
	tagBcast
	tagScatter
	tagGather
	tagReduce
)

func encode[T Number](vals []T) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, binary.Size(vals)))
	binary.Write(buf, binary.LittleEndian, vals) // cannot fail on a fixed size slice
	return buf.Bytes()
}

// decode decodes data into vals, returning the element count.
func decode[T Number](data []byte, vals []T) (int, error) {
	var zero T
	esz := binary.Size(zero)
	if len(data)%esz != 0 {
		return 0, fmt.Errorf("mpi: message of %d bytes is not a multiple of the element size %d", len(data), esz)
	}
	n := len(data) / esz
	if n > len(vals) {
		return 0, fmt.Errorf("%w: %d elements into buffer of %d", ErrTruncate, n, len(vals))
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, vals[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

// Send sends vals to toProc with the given tag.
func Send[T Number](ctx context.Context, cm *Comm, toProc, tag int, vals []T) error {
	if err := cm.checkRank(toProc); err != nil {
		return err
	}
	return cm.ep.Send(ctx, toProc, tag, encode(vals))
}

// Recv receives into vals from fmProc (or [AnySource]) with the given tag
// (or [AnyTag]). The message must fit in vals.
func Recv[T Number](ctx context.Context, cm *Comm, fmProc, tag int, vals []T) (Status, error) {
	if fmProc != AnySource {
		if err := cm.checkRank(fmProc); err != nil {
			return Status{}, err
		}
	}
	msg, err := cm.ep.Recv(ctx, fmProc, tag)
	if err != nil {
		return Status{}, err
	}
	n, err := decode(msg.Data, vals)
	return Status{Source: msg.Source, Tag: msg.Tag, Count: n}, err
}
