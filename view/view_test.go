// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package view

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parlab/mandelpool/base/websocket"
	"github.com/parlab/mandelpool/mandel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPages(t *testing.T) {
	p := mandel.Params{Width: 10, Height: 6, MaxIters: 30}
	g := mandel.NewGrid(p.Width, p.Height)
	require.NoError(t, g.SetRow(0, p.Row(0, nil), p.MaxIters, mandel.Classic))
	srv := httptest.NewServer(NewServer(g))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `width="10" height="6"`)

	res, err = http.Get(srv.URL + "/image.png")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	img, err := png.Decode(res.Body)
	require.NoError(t, err)
	assert.Equal(t, g.Image().Bounds(), img.Bounds())

	res, err = http.Get(srv.URL + "/nothing")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUpdates(t *testing.T) {
	p := mandel.Params{Width: 10, Height: 6, MaxIters: 30}
	g := mandel.NewGrid(p.Width, p.Height)
	s := NewServer(g)
	srv := httptest.NewServer(s)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := websocket.Connect(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	require.NoError(t, err)

	updates := make(chan Update, 16)
	c.OnMessage(func(typ websocket.MessageTypes, msg []byte) {
		var u Update
		if assert.NoError(t, json.Unmarshal(msg, &u)) {
			updates <- u
		}
	})
	closed := make(chan struct{})
	c.OnClose(func() { close(closed) })

	// the greeting arrives once the client is registered
	assert.Equal(t, Update{Row: -1, Done: 0, Total: 6}, <-updates)
	assert.Equal(t, 1, s.Clients())

	require.NoError(t, g.SetRow(4, p.Row(4, nil), p.MaxIters, mandel.Classic))
	s.RowDone(4)
	select {
	case u := <-updates:
		assert.Equal(t, Update{Row: 4, Done: 1, Total: 6}, u)
	case <-ctx.Done():
		t.Fatal("no update")
	}

	s.Close()
	select {
	case <-closed:
	case <-ctx.Done():
		t.Fatal("client not closed")
	}
	assert.Eventually(t, func() bool { return s.Clients() == 0 }, time.Second, 10*time.Millisecond)
}
