// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"bytes"
	"strings"
)

// Run runs the given command using the given configuration information and arguments.
func (c *Config) Run(cmd string, args ...string) error {
	_, err := c.Exec(cmd, args...)
	return err
}

// Output runs the command and returns the text from stdout.
func (c *Config) Output(cmd string, args ...string) (string, error) {
	oldStdout := c.Out
	// need to use buf to capture output
	buf := &bytes.Buffer{}
	c.Out = buf
	_, err := c.Exec(cmd, args...)
	c.Out = oldStdout
	if c.Out != nil {
		c.Out.Write(buf.Bytes())
	}
	return strings.TrimSuffix(buf.String(), "\n"), err
}
