// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Adapted in part from: https://github.com/magefile/mage
// Copyright presumably by Nate Finch, primary contributor
// Apache License, Version 2.0, January 2004

// Package exec runs external commands, with a [Config] for the
// working directory, environment and standard input / output.
// It is used to start worker processes.
package exec

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Config contains the configuration information that
// controls the behavior of exec functions.
type Config struct {
	StdIO

	// Dir is the directory the command runs in.
	// The current directory is used if it is empty.
	Dir string

	// Env contains any additional environment variables specified.
	// The current environment is also passed to the command.
	Env map[string]string

	// Echo is the writer for echoing the command string to.
	// It can be set to nil to disable echoing.
	Echo io.Writer

	// PrintOnly is whether to only print commands that would be run and
	// not actually run them.
	PrintOnly bool
}

// Minor returns a [Config] for commands that run in the background:
// output goes to os.Stderr, and commands are only logged at the debug level.
func Minor() *Config {
	return &Config{StdIO: StdIO{Out: os.Stderr, Err: os.Stderr}}
}

// SetEnv sets an environment variable for the command.
func (c *Config) SetEnv(key, value string) *Config {
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	c.Env[key] = value
	return c
}

// Exec executes the command, piping its stdout and stderr to the config
// writers. If start is false, it waits for the command to finish.
// It returns whether the command was actually run.
func (c *Config) Exec(cmd string, args ...string) (ran bool, err error) {
	_, ran, err = c.exec(&c.StdIO, false, cmd, args...)
	return
}

func (c *Config) exec(sio *StdIO, start bool, cmd string, args ...string) (excmd *exec.Cmd, ran bool, err error) {
	cs := CommandString(cmd, args...)
	if c.Echo != nil {
		fmt.Fprintln(c.Echo, cs)
	} else {
		slog.Debug("exec", "cmd", cs)
	}
	if c.PrintOnly {
		return nil, false, nil
	}
	excmd = exec.Command(cmd, args...)
	excmd.Dir = c.Dir
	excmd.Env = os.Environ()
	for k, v := range c.Env {
		excmd.Env = append(excmd.Env, k+"="+v)
	}
	excmd.Stdout = sio.Out
	excmd.Stderr = sio.Err
	excmd.Stdin = sio.In
	if start {
		err = excmd.Start()
	} else {
		err = excmd.Run()
	}
	if err != nil {
		return excmd, excmd.ProcessState != nil, fmt.Errorf("exec %q: %w", cs, err)
	}
	return excmd, true, nil
}

// CommandString returns the shell form of the command and arguments,
// quoting arguments that contain spaces.
func CommandString(cmd string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, s := range append([]string{cmd}, args...) {
		if s == "" || strings.ContainsAny(s, " \t\"'") {
			s = fmt.Sprintf("%q", s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// SplitArgs splits a command line string into arguments,
// following shell quoting rules. Environment variables
// of the form $NAME are expanded.
func SplitArgs(s string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = true
	return p.Parse(s)
}
