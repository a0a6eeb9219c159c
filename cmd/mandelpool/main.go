// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mandelpool computes the Mandelbrot set with one control
// process handing out rows to a pool of workers, either in one process
// or across processes connected over websockets.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/parlab/mandelpool/base/errors"
	"github.com/parlab/mandelpool/base/fsx"
	"github.com/parlab/mandelpool/base/iox/imagex"
	"github.com/parlab/mandelpool/base/mpi"
	"github.com/parlab/mandelpool/cli"
	"github.com/parlab/mandelpool/distrib"
	"github.com/parlab/mandelpool/logx"
	"github.com/parlab/mandelpool/mandel"
	"github.com/parlab/mandelpool/view"
	"gopkg.in/yaml.v3"
)

// Config is the configuration information for mandelpool.
type Config struct {

	// Includes are other config files to read before this one.
	Includes []string

	// Grid are the image dimensions and iteration limit.
	Grid mandel.Params

	// Workers is the number of worker processes, not counting the control process.
	Workers int `default:"4" flag:"workers,np" desc:"number of workers, not counting the control process"`

	// Policy is how rows are handed out: static or pool.
	Policy string `default:"pool" desc:"row distribution policy: static or pool"`

	// Palette is the coloring of the image.
	Palette string `default:"classic" desc:"palette: classic, gray, smooth or wheel"`

	// Transport is how the run command links the control process and
	// the workers: mpi for an in-process message passing world, or chan
	// for plain channels.
	Transport string `default:"mpi" desc:"in-process transport for run: mpi or chan"`

	// EagerLimit is the largest message in bytes that the in-process
	// world delivers without waiting for the receiver.
	EagerLimit int `default:"65536" desc:"largest buffered message in bytes for in-process worlds"`

	// Output is the image file to save, in a format given by its extension.
	Output string `default:"mandelbrot.png" flag:"output,o" desc:"image file to save"`

	// Report, if set, is a YAML file to write the run statistics to.
	Report string `desc:"YAML file to write the run statistics to"`

	// View, if set, is the address to serve a live view of the image on.
	View string `desc:"address to serve a live view on, such as localhost:8080"`

	// Hold keeps the live view running after the image is complete,
	// until interrupted.
	Hold bool `desc:"keep serving the live view after the run"`

	// Addr is the host:port of the control process for the
	// control, worker and launch commands.
	Addr string `default:"localhost:8040" desc:"address of the control process"`

	// Rank is the rank of a worker process, in [1, workers].
	Rank int `desc:"rank of this worker process, from 1"`

	// WorkerArgs are extra arguments passed to launched workers.
	WorkerArgs string `desc:"extra arguments for launched workers, split like a shell"`

	// Timeout bounds how long the control process waits for
	// the workers to connect.
	Timeout time.Duration `default:"30s" desc:"how long to wait for workers to connect"`

	// LogLevel is the minimum level of log messages to show.
	LogLevel string `default:"info" desc:"log level: debug, info, warn or error"`

	// NoColor turns off colored log levels.
	NoColor bool `desc:"do not color log levels"`

	// Exercise configures the exercise commands.
	Exercise ExerciseConfig
}

func (c *Config) IncludesPtr() *[]string { return &c.Includes }

func main() {
	if run(os.Args[1:]) != nil {
		os.Exit(1)
	}
}

// run runs the command selected by args.
func run(args []string) error {
	opts := cli.DefaultOptions("mandelpool", "Computes the Mandelbrot set with a control process and a pool of workers.")
	opts.DefaultFiles = []string{"mandelpool.toml"}
	tcomm := cli.CmdFromFunc(TComm, "time messages of increasing size")
	tcomm.Name = "tcomm"
	return cli.RunArgs(opts, &Config{}, args,
		cli.CmdFromFunc(Run, "run the control process and workers in this process").SetRoot(),
		cli.CmdFromFunc(Control, "host the control process for worker processes to join"),
		cli.CmdFromFunc(Worker, "join a control process as a worker"),
		cli.CmdFromFunc(Launch, "run the control process and start the workers as subprocesses"),
		cli.CmdFromFunc(Watch, "follow the progress of a live view"),
		cli.CmdFromFunc(Cyclic, "exchange values around a ring of ranks"),
		tcomm,
		cli.CmdFromFunc(Tree, "sum the ranks up a binary tree"),
		cli.CmdFromFunc(VecDouble, "double a vector split among ranks"),
		cli.CmdFromFunc(Histogram, "count the letters of a text in parallel"),
		cli.CmdFromFunc(Set, "add, remove and sort values of a concurrent set"),
		cli.CmdFromFunc(Weights, "update network weights in parallel"),
	)
}

// Report is the YAML run report.
type Report struct {
	Grid      mandel.Params `yaml:"grid"`
	Palette   string        `yaml:"palette"`
	Transport string        `yaml:"transport"`
	Output    string        `yaml:"output,omitempty"`
	Stats     distrib.Stats `yaml:"stats"`
}

// setLog applies the log options.
func (c *Config) setLog() error {
	if c.NoColor {
		logx.UseColor = false
	}
	return logx.SetLevel(c.LogLevel)
}

// setup applies the log options and returns the policy
// and the control process for the config.
func (c *Config) setup() (distrib.Policy, *distrib.Control, error) {
	if err := c.setLog(); err != nil {
		return nil, nil, err
	}
	policy, err := distrib.ParsePolicy(c.Policy)
	if err != nil {
		return nil, nil, err
	}
	color, err := mandel.PaletteByName(c.Palette)
	if err != nil {
		return nil, nil, err
	}
	if err := distrib.Validate(c.Grid, c.Workers); err != nil {
		return nil, nil, err
	}
	ctl := &distrib.Control{
		Params:  c.Grid,
		Workers: c.Workers,
		Color:   color,
		Grid:    mandel.NewGrid(c.Grid.Width, c.Grid.Height),
	}
	return policy, ctl, nil
}

// Run runs the control process and the workers in this process,
// saves the image, and writes the report.
func Run(c *Config) error {
	policy, ctl, err := c.setup()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var srv *http.Server
	if c.View != "" {
		vs := view.NewServer(ctl.Grid)
		defer vs.Close()
		ctl.OnRow = func(row distrib.Row) { vs.RowDone(row.Index) }
		srv = &http.Server{Addr: c.View, Handler: vs}
		go func() {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errors.Log(err)
			}
		}()
		slog.Info("serving live view", "url", "http://"+c.View)
		defer srv.Close()
	}

	var st distrib.Stats
	switch c.Transport {
	case "mpi":
		st, err = distrib.RunWorld(ctx, policy, ctl, mpi.WithEagerLimit(c.EagerLimit))
	case "chan":
		st, err = distrib.RunChannels(ctx, policy, ctl)
	default:
		err = fmt.Errorf("unknown transport %q (want mpi or chan)", c.Transport)
	}
	if err != nil {
		return err
	}
	if err := c.finish(ctl, st); err != nil {
		return err
	}
	if srv != nil && c.Hold {
		slog.Info("run complete; serving live view until interrupted")
		<-ctx.Done()
	}
	return nil
}

// finish saves the image and writes the report.
func (c *Config) finish(ctl *distrib.Control, st distrib.Stats) error {
	if c.Output != "" {
		if err := imagex.Save(ctl.Grid.Image(), c.Output); err != nil {
			return err
		}
		slog.Info("saved image", "file", c.Output)
	}
	if c.Report == "" {
		return nil
	}
	b, err := yaml.Marshal(&Report{Grid: c.Grid, Palette: c.Palette, Transport: c.Transport, Output: c.Output, Stats: st})
	if err != nil {
		return err
	}
	fn, err := fsx.ExpandHome(c.Report)
	if err != nil {
		return err
	}
	return os.WriteFile(fn, b, 0o644)
}

// exerciseWorld runs fn on an in-process world with the configured
// number of ranks.
func (c *Config) exerciseWorld(fn func(ctx context.Context, cm *mpi.Comm) error) error {
	if err := c.setLog(); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return mpi.RunWorld(ctx, c.Exercise.Ranks, fn, mpi.WithEagerLimit(c.EagerLimit))
}
