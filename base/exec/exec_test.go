// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !windows

package exec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	args, err := SplitArgs(`--rank 2 --name "a b" 'c d'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"--rank", "2", "--name", "a b", "c d"}, args)

	t.Setenv("MANDELPOOL_TEST_ARG", "xyz")
	args, err = SplitArgs(`-v $MANDELPOOL_TEST_ARG`)
	require.NoError(t, err)
	assert.Equal(t, []string{"-v", "xyz"}, args)

	_, err = SplitArgs(`"unterminated`)
	assert.Error(t, err)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, `echo "a b" c`, CommandString("echo", "a b", "c"))
	assert.Equal(t, `worker ""`, CommandString("worker", ""))
}

func TestOutput(t *testing.T) {
	echo := &bytes.Buffer{}
	c := &Config{Echo: echo}
	out, err := c.Output("echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "echo hello\n", echo.String())

	c.SetEnv("MANDELPOOL_RANK", "3")
	out, err = c.Output("sh", "-c", "echo $MANDELPOOL_RANK")
	require.NoError(t, err)
	assert.Equal(t, "3", out)

	c.Dir = t.TempDir()
	out, err = c.Output("pwd")
	require.NoError(t, err)
	assert.Contains(t, out, c.Dir)
}

func TestPrintOnly(t *testing.T) {
	echo := &bytes.Buffer{}
	c := &Config{Echo: echo, PrintOnly: true}
	ran, err := c.Exec("false")
	assert.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, "false\n", echo.String())
}

func TestStartWait(t *testing.T) {
	out := &bytes.Buffer{}
	c := Minor()
	c.Out = out
	require.NoError(t, c.Run("sh", "-c", "echo one two"))
	assert.Equal(t, "one two\n", out.String())

	cio := NewCmdIO(c)
	require.NoError(t, c.StartIO(cio, "sh", "-c", "exit 3"))
	err := cio.Wait()
	assert.Error(t, err)
	assert.Contains(t, cio.String(), "exit status 3")

	cio = NewCmdIO(c)
	require.NoError(t, c.StartIO(cio, "sleep", "10"))
	require.NoError(t, cio.Kill())
	assert.Error(t, cio.Wait())
	// killing a finished command is not an error
	assert.NoError(t, cio.Kill())

	assert.Error(t, (&CmdIO{}).Wait())
	assert.Error(t, c.Run("mandelpool-no-such-command"))
}
