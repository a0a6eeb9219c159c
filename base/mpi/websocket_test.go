// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	b := encodeFrame(3, -2, []byte("abc"))
	rank, tag, data, err := decodeFrame(b)
	require.NoError(t, err)
	assert.Equal(t, 3, rank)
	assert.Equal(t, -2, tag)
	assert.Equal(t, []byte("abc"), data)

	_, _, _, err = decodeFrame(b[:5])
	assert.Error(t, err)
}

func TestHubPeers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const size = 3
	hub := NewHub(size)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	p1, err := Dial(ctx, url, 1, size)
	require.NoError(t, err)
	defer p1.Close()
	p2, err := Dial(ctx, url, 2, size)
	require.NoError(t, err)
	defer p2.Close()
	require.NoError(t, hub.WaitReady(ctx))

	c0, c1, c2 := NewComm(hub), NewComm(p1), NewComm(p2)

	// worker to root
	require.NoError(t, c1.SendI32(ctx, 0, 4, []int32{10, 11}))
	buf := make([]int32, 2)
	st, err := c0.RecvI32(ctx, AnySource, AnyTag, buf)
	require.NoError(t, err)
	assert.Equal(t, Status{Source: 1, Tag: 4, Count: 2}, st)
	assert.Equal(t, []int32{10, 11}, buf)

	// root to worker
	require.NoError(t, c0.SendI32(ctx, 2, 5, []int32{-1}))
	st, err = c2.RecvI32(ctx, 0, 5, buf)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), buf[0])
	assert.Equal(t, 1, st.Count)

	// worker to worker, relayed by the hub
	require.NoError(t, c2.SendF64(ctx, 1, 6, []float64{2.5}))
	fb := make([]float64, 1)
	st, err = c1.RecvF64(ctx, 2, 6, fb)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Source)
	assert.Equal(t, 2.5, fb[0])

	// collectives work across the transport
	errc := make(chan error, size)
	for _, cm := range []*Comm{c0, c1, c2} {
		go func() {
			sum := make([]int32, 1)
			err := AllReduce(ctx, cm, OpSum, []int32{int32(cm.Rank())}, sum)
			if err == nil && sum[0] != 3 {
				err = assert.AnError
			}
			errc <- err
		}()
	}
	for range size {
		assert.NoError(t, <-errc)
	}
}

func TestDialBadRank(t *testing.T) {
	_, err := Dial(context.Background(), "ws://localhost:1/", 0, 2)
	assert.ErrorIs(t, err, ErrRank)
}
