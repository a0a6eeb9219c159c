// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/parlab/mandelpool/base/errors"
)

// frameHeader is the size of the [rank int32][tag int32] frame header.
// Frames sent to the hub carry the destination rank, and frames
// sent by the hub carry the source rank.
const frameHeader = 8

func encodeFrame(rank, tag int, data []byte) []byte {
	b := make([]byte, frameHeader+len(data))
	binary.LittleEndian.PutUint32(b[0:], uint32(int32(rank)))
	binary.LittleEndian.PutUint32(b[4:], uint32(int32(tag)))
	copy(b[frameHeader:], data)
	return b
}

func decodeFrame(b []byte) (rank, tag int, data []byte, err error) {
	if len(b) < frameHeader {
		return 0, 0, nil, fmt.Errorf("mpi: short frame of %d bytes", len(b))
	}
	rank = int(int32(binary.LittleEndian.Uint32(b[0:])))
	tag = int(int32(binary.LittleEndian.Uint32(b[4:])))
	return rank, tag, b[frameHeader:], nil
}

// wsConn serializes writes on a websocket connection,
// which supports one concurrent writer only.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (wc *wsConn) write(ctx context.Context, rank, tag int, data []byte) error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	dl, _ := ctx.Deadline()
	wc.conn.SetWriteDeadline(dl)
	return wc.conn.WriteMessage(websocket.BinaryMessage, encodeFrame(rank, tag, data))
}

func (wc *wsConn) close() error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return wc.conn.Close()
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// Hub is the rank 0 [Endpoint] of a group of processes connected over
// websockets. It is an [http.Handler]: every other rank dials it with
// [Dial] and announces its rank. Messages between two non-root ranks
// are relayed through the hub.
type Hub struct {
	size     int
	upgrader websocket.Upgrader
	box      *mailbox

	mu     sync.Mutex
	conns  []*wsConn
	joined int
	ready  chan struct{}
	done   chan struct{}
	closed bool
}

// NewHub returns a new hub for a group of the given size,
// which includes the hub itself as rank 0.
func NewHub(size int) *Hub {
	h := &Hub{
		size:  size,
		box:   newMailbox(),
		conns: make([]*wsConn, size),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	if size == 1 {
		close(h.ready)
	}
	return h
}

// ServeHTTP accepts a connection from a rank.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if errors.Log(err) != nil {
		return
	}
	wc := &wsConn{conn: conn}
	rank, err := h.join(wc)
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), time.Now().Add(time.Second))
		conn.Close()
		errors.Log(err)
		return
	}
	h.readLoop(rank, wc)
}

// join reads the hello frame of a new connection and registers it.
func (h *Hub) join(wc *wsConn) (int, error) {
	_, msg, err := wc.conn.ReadMessage()
	if err != nil {
		return 0, err
	}
	rank, size, _, err := decodeFrame(msg)
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.closed:
		return 0, ErrClosed
	case size != h.size:
		return 0, fmt.Errorf("mpi.Hub: rank %d expects size %d, hub has size %d", rank, size, h.size)
	case rank <= 0 || rank >= h.size:
		return 0, fmt.Errorf("%w: rank %d joining hub of size %d", ErrRank, rank, h.size)
	case h.conns[rank] != nil:
		return 0, fmt.Errorf("mpi.Hub: rank %d already joined", rank)
	}
	h.conns[rank] = wc
	h.joined++
	if h.joined == h.size-1 {
		close(h.ready)
	}
	return rank, nil
}

func (h *Hub) readLoop(rank int, wc *wsConn) {
	for {
		_, msg, err := wc.conn.ReadMessage()
		if err != nil {
			if !isNormalClose(err) && !h.isClosed() {
				errors.Log(fmt.Errorf("mpi.Hub: rank %d: %w", rank, err))
			}
			return
		}
		dest, tag, data, err := decodeFrame(msg)
		if errors.Log(err) != nil {
			continue
		}
		if dest == Root {
			env := &envelope{Message: Message{Source: rank, Tag: tag, Data: data}, taken: make(chan struct{})}
			if h.box.put(env) != nil {
				return
			}
			continue
		}
		select {
		case <-h.ready:
		case <-h.done:
			return
		}
		to, err := h.conn(dest)
		if errors.Log(err) != nil {
			continue
		}
		errors.Log(to.write(context.Background(), rank, tag, data))
	}
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Hub) conn(rank int) (*wsConn, error) {
	if rank <= 0 || rank >= h.size {
		return nil, fmt.Errorf("%w: rank %d in hub of size %d", ErrRank, rank, h.size)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	wc := h.conns[rank]
	if wc == nil {
		return nil, fmt.Errorf("mpi.Hub: rank %d has not joined", rank)
	}
	return wc, nil
}

// WaitReady blocks until every rank has joined the hub.
func (h *Hub) WaitReady(ctx context.Context) error {
	select {
	case <-h.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Rank() int { return Root }

func (h *Hub) Size() int { return h.size }

func (h *Hub) Send(ctx context.Context, dest, tag int, data []byte) error {
	if dest == Root {
		env := &envelope{Message: Message{Source: Root, Tag: tag, Data: append([]byte(nil), data...)}, taken: make(chan struct{})}
		return h.box.put(env)
	}
	wc, err := h.conn(dest)
	if err != nil {
		return err
	}
	return wc.write(ctx, Root, tag, data)
}

func (h *Hub) Recv(ctx context.Context, source, tag int) (Message, error) {
	return h.box.get(ctx, source, tag)
}

// Close closes all connections to the other ranks.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conns := h.conns
	h.mu.Unlock()
	close(h.done)

	h.box.close(ErrClosed)
	var errs []error
	for _, wc := range conns {
		if wc != nil {
			if err := wc.close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Peer is the [Endpoint] of a non-root rank connected to a [Hub].
type Peer struct {
	rank, size int
	wc         *wsConn
	box        *mailbox
}

// Dial connects to the hub at the given websocket url (for example
// "ws://localhost:8040/mpi") as the given rank of a group of the given size.
func Dial(ctx context.Context, url string, rank, size int) (*Peer, error) {
	if rank <= 0 || rank >= size {
		return nil, fmt.Errorf("%w: cannot dial as rank %d of %d", ErrRank, rank, size)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	p := &Peer{rank: rank, size: size, wc: &wsConn{conn: conn}, box: newMailbox()}
	if err := p.wc.write(ctx, rank, size, nil); err != nil {
		conn.Close()
		return nil, err
	}
	go p.readLoop()
	return p, nil
}

func (p *Peer) readLoop() {
	for {
		_, msg, err := p.wc.conn.ReadMessage()
		if err != nil {
			if isNormalClose(err) {
				err = ErrClosed
			}
			p.box.close(err)
			return
		}
		src, tag, data, err := decodeFrame(msg)
		if errors.Log(err) != nil {
			continue
		}
		env := &envelope{Message: Message{Source: src, Tag: tag, Data: data}, taken: make(chan struct{})}
		if p.box.put(env) != nil {
			return
		}
	}
}

func (p *Peer) Rank() int { return p.rank }

func (p *Peer) Size() int { return p.size }

func (p *Peer) Send(ctx context.Context, dest, tag int, data []byte) error {
	if dest < 0 || dest >= p.size {
		return fmt.Errorf("%w: send to %d from %d", ErrRank, dest, p.rank)
	}
	if dest == p.rank {
		env := &envelope{Message: Message{Source: p.rank, Tag: tag, Data: append([]byte(nil), data...)}, taken: make(chan struct{})}
		return p.box.put(env)
	}
	return p.wc.write(ctx, dest, tag, data)
}

func (p *Peer) Recv(ctx context.Context, source, tag int) (Message, error) {
	return p.box.get(ctx, source, tag)
}

// Close closes the connection to the hub.
func (p *Peer) Close() error {
	p.box.close(ErrClosed)
	return p.wc.close()
}
