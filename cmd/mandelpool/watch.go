// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/parlab/mandelpool/base/errors"
	"github.com/parlab/mandelpool/base/websocket"
	"github.com/parlab/mandelpool/view"
)

// Watch follows the live view served on the configured view address
// and logs the progress until the image is complete.
func Watch(c *Config) error {
	if err := c.setLog(); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cl, err := websocket.Connect(ctx, "ws://"+c.View+"/ws")
	if err != nil {
		return err
	}
	complete := make(chan struct{})
	step := 0
	finished := false
	var last view.Update
	cl.OnMessage(func(typ websocket.MessageTypes, msg []byte) {
		var u view.Update
		if errors.Log(json.Unmarshal(msg, &u)) != nil || u.Total == 0 {
			return
		}
		last = u
		if pct := 10 * u.Done / u.Total; pct > step || u.Row < 0 {
			step = pct
			slog.Info("progress", "done", u.Done, "total", u.Total)
		}
		if u.Done == u.Total && !finished {
			finished = true
			close(complete)
		}
	})
	select {
	case <-complete:
		errors.Log(cl.Close())
		return nil
	case <-cl.Done():
		// the message callback has returned for the last time
		if finished {
			return nil
		}
		return fmt.Errorf("view connection closed with %d of %d rows done", last.Done, last.Total)
	case <-ctx.Done():
		errors.Log(cl.Close())
		return ctx.Err()
	}
}
