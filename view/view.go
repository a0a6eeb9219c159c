// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package view serves a [mandel.Grid] over HTTP while it is being
// computed: a page, the current image, and a websocket with an
// update after every row.
package view

import (
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/parlab/mandelpool/base/errors"
	"github.com/parlab/mandelpool/mandel"
)

// Update is sent to websocket clients after each row.
type Update struct {
	Row   int `json:"row"`
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Server is an [http.Handler] for a grid.
type Server struct {
	grid     *mandel.Grid
	mux      *http.ServeMux
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[chan Update]struct{}
	closed  bool
}

// NewServer returns a new server for the given grid.
func NewServer(grid *mandel.Grid) *Server {
	s := &Server{grid: grid, mux: http.NewServeMux(), clients: map[chan Update]struct{}{}}
	s.mux.HandleFunc("GET /{$}", s.serveIndex)
	s.mux.HandleFunc("GET /image.png", s.serveImage)
	s.mux.HandleFunc("GET /ws", s.serveWS)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexHTML, s.grid.Width(), s.grid.Height())
}

func (s *Server) serveImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	errors.Log(png.Encode(w, s.grid.Image()))
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if errors.Log(err) != nil {
		return
	}
	defer conn.Close()
	ch := make(chan Update, 64)
	if !s.add(ch) {
		return
	}
	defer s.remove(ch)

	// reads only to notice the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	first := Update{Row: -1, Done: s.grid.Done(), Total: s.grid.Height()}
	if conn.WriteJSON(first) != nil {
		return
	}
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(u); err != nil {
				slog.Debug("view: client write failed", "err", err)
				return
			}
		case <-gone:
			return
		}
	}
}

func (s *Server) add(ch chan Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[ch] = struct{}{}
	return true
}

func (s *Server) remove(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, ch)
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// RowDone sends an update for the given row to all clients.
// Clients that fall behind miss updates rather than slow down the caller.
func (s *Server) RowDone(row int) {
	u := Update{Row: row, Done: s.grid.Done(), Total: s.grid.Height()}
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- u:
		default:
		}
	}
}

// Close disconnects all websocket clients.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.clients {
		close(ch)
		delete(s.clients, ch)
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>mandelpool</title></head>
<body style="background:#222;color:#ddd;font-family:sans-serif">
<p id="status">connecting</p>
<img id="img" src="image.png" width="%d" height="%d" style="image-rendering:pixelated">
<script>
const img = document.getElementById("img");
const status = document.getElementById("status");
let pending = false;
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (e) => {
	const u = JSON.parse(e.data);
	status.textContent = u.done + " / " + u.total + " rows";
	if (!pending) {
		pending = true;
		setTimeout(() => { img.src = "image.png?" + Date.now(); pending = false; }, 100);
	}
};
ws.onclose = () => { img.src = "image.png?" + Date.now(); status.textContent += " (done)"; };
</script>
</body>
</html>
`
