// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"

	"github.com/parlab/mandelpool/base/errors"
	"github.com/parlab/mandelpool/base/exec"
	"github.com/parlab/mandelpool/base/mpi"
	"github.com/parlab/mandelpool/distrib"
	"golang.org/x/sync/errgroup"
)

// hubPath is the http path of the websocket hub.
const hubPath = "/mpi"

// hubURL returns the websocket url of the hub at addr.
func hubURL(addr string) string {
	return "ws://" + addr + hubPath
}

// serveHub starts serving a hub for the control process
// and the configured number of workers on c.Addr.
func (c *Config) serveHub() (*mpi.Hub, *http.Server, error) {
	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return nil, nil, err
	}
	hub := mpi.NewHub(c.Workers + 1)
	mux := http.NewServeMux()
	mux.Handle(hubPath, hub)
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errors.Log(err)
		}
	}()
	slog.Info("control process listening", "url", hubURL(c.Addr), "workers", c.Workers)
	return hub, srv, nil
}

// runHub waits for the workers to join the hub and then runs
// the control process on it.
func (c *Config) runHub(ctx context.Context, hub *mpi.Hub, policy distrib.Policy, ctl *distrib.Control) error {
	wctx, cancel := context.WithTimeout(ctx, c.Timeout)
	err := hub.WaitReady(wctx)
	cancel()
	if err != nil {
		return fmt.Errorf("waiting for %d workers to join: %w", c.Workers, err)
	}
	st, err := distrib.RunComm(ctx, mpi.NewComm(hub), policy, ctl)
	if err != nil {
		return err
	}
	return c.finish(ctl, st)
}

// Control hosts the control process on the configured address,
// waits for the workers to join, and runs the row distribution.
func Control(c *Config) error {
	policy, ctl, err := c.setup()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	hub, srv, err := c.serveHub()
	if err != nil {
		return err
	}
	defer srv.Close()
	defer hub.Close()
	return c.runHub(ctx, hub, policy, ctl)
}

// Worker joins the control process at the configured address
// as the configured rank and computes the rows it is given.
func Worker(c *Config) error {
	policy, _, err := c.setup()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	peer, err := mpi.Dial(ctx, hubURL(c.Addr), c.Rank, c.Workers+1)
	if err != nil {
		return err
	}
	defer peer.Close()
	wk := &distrib.Worker{Index: c.Rank - 1, Workers: c.Workers, Params: c.Grid}
	slog.Debug("worker started", "rank", c.Rank, "policy", policy)
	return wk.Run(ctx, policy, distrib.NewCommWorker(mpi.NewComm(peer), c.Grid.Width))
}

// workerArgs returns the command line of the worker of the given rank.
func (c *Config) workerArgs(rank int) ([]string, error) {
	args := []string{"worker",
		"-addr", c.Addr,
		"-rank", strconv.Itoa(rank),
		"-workers", strconv.Itoa(c.Workers),
		"-policy", c.Policy,
		"-grid.width", strconv.Itoa(c.Grid.Width),
		"-grid.height", strconv.Itoa(c.Grid.Height),
		"-grid.max-iters", strconv.Itoa(c.Grid.MaxIters),
		"-log-level", c.LogLevel,
	}
	extra, err := exec.SplitArgs(c.WorkerArgs)
	if err != nil {
		return nil, fmt.Errorf("worker args: %w", err)
	}
	return append(args, extra...), nil
}

// Launch hosts the control process like [Control] and starts the
// workers as subprocesses of this executable.
func Launch(c *Config) error {
	policy, ctl, err := c.setup()
	if err != nil {
		return err
	}
	self, err := os.Executable()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	hub, srv, err := c.serveHub()
	if err != nil {
		return err
	}
	defer srv.Close()
	defer hub.Close()

	ec := exec.Minor()
	procs := make([]*exec.CmdIO, c.Workers)
	for w := range c.Workers {
		args, err := c.workerArgs(distrib.WorkerRank(w))
		if err == nil {
			procs[w] = exec.NewCmdIO(ec)
			err = ec.StartIO(procs[w], self, args...)
			slog.Debug("started worker", "rank", distrib.WorkerRank(w), "cmd", procs[w])
		}
		if err != nil {
			for _, p := range procs[:w] {
				errors.Log(p.Kill())
			}
			return err
		}
	}

	var g errgroup.Group
	for _, p := range procs {
		g.Go(p.Wait)
	}
	if err := c.runHub(ctx, hub, policy, ctl); err != nil {
		for _, p := range procs {
			errors.Log(p.Kill())
		}
		g.Wait()
		return err
	}
	return g.Wait()
}
