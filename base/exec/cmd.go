// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/parlab/mandelpool/base/errors"
)

// Cmd is a type alias for [exec.Cmd].
type Cmd = exec.Cmd

// CmdIO maintains an [exec.Cmd] pointer and IO state saved for the command
type CmdIO struct {
	StdIO

	// Cmd is the [exec.Cmd]
	Cmd *exec.Cmd
}

func (c *CmdIO) String() string {
	if c.Cmd == nil {
		return "<nil>"
	}
	str := ""
	if c.Cmd.ProcessState != nil {
		str = c.Cmd.ProcessState.String() + " "
	} else if c.Cmd.Process != nil {
		str = fmt.Sprintf("%d  	", c.Cmd.Process.Pid)
	} else {
		str = "no process info "
	}
	str += c.Cmd.String()
	return str
}

// NewCmdIO returns a new [CmdIO] initialized with StdIO settings from given Config
func NewCmdIO(c *Config) *CmdIO {
	cio := &CmdIO{}
	cio.StdIO = c.StdIO
	return cio
}

// StartIO starts the given command using the given
// configuration information and arguments,
// just starting the command but not waiting for it to finish.
// This IO version of [Start] uses specified stdio and sets the
// command in it as well, which should be used to [CmdIO.Wait] for
// the command to finish (in a separate goroutine).
func (c *Config) StartIO(cio *CmdIO, cmd string, args ...string) error {
	cm, _, err := c.exec(&cio.StdIO, true, cmd, args...)
	cio.Cmd = cm
	return err
}

// Wait waits for a started command to finish.
func (c *CmdIO) Wait() error {
	if c.Cmd == nil || c.Cmd.Process == nil {
		return fmt.Errorf("exec.CmdIO.Wait: command not started")
	}
	if err := c.Cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w", c.Cmd.String(), err)
	}
	return nil
}

// Kill kills a started command that has not finished yet.
// It is safe to call while another goroutine is in [CmdIO.Wait].
func (c *CmdIO) Kill() error {
	if c.Cmd == nil || c.Cmd.Process == nil {
		return nil
	}
	if err := c.Cmd.Process.Kill(); !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
