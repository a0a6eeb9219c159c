// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testView struct {
	Addr string `default:"localhost:8041" desc:"view address"`
}

type testConfig struct {
	Includes []string
	Workers  int           `default:"4" flag:"w,np" desc:"number of workers"`
	Policy   string        `default:"pool"`
	MaxIters int           `default:"300"`
	Verbose  bool          `flag:"v"`
	Timeout  time.Duration `default:"1m"`
	View     testView
	File     string `posarg:"0"`
}

func (c *testConfig) IncludesPtr() *[]string { return &c.Includes }

func testOptions(t *testing.T) (*Options, *bytes.Buffer) {
	opts := DefaultOptions("mandelpool", "test app")
	buf := &bytes.Buffer{}
	opts.Out = buf
	opts.IncludePaths = []string{t.TempDir()}
	return opts, buf
}

func writeFile(t *testing.T, dir, name, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDefaultsAndFlags(t *testing.T) {
	opts, _ := testOptions(t)
	cfg := &testConfig{}
	_, err := Config(opts, cfg, []string{"-np", "8", "--max-iters=50", "-v", "--view.addr", ":9000", "out.png"})
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "pool", cfg.Policy)
	assert.Equal(t, 50, cfg.MaxIters)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, ":9000", cfg.View.Addr)
	assert.Equal(t, "out.png", cfg.File)

	_, err = Config(opts, &testConfig{}, []string{"--no-such-flag"})
	assert.Error(t, err)
	_, err = Config(opts, &testConfig{}, []string{"a.png", "b.png"})
	assert.Error(t, err)
	_, err = Config(opts, &testConfig{}, []string{"-workers", "many"})
	assert.Error(t, err)
}

func TestConfigFiles(t *testing.T) {
	opts, _ := testOptions(t)
	dir := opts.IncludePaths[0]
	writeFile(t, dir, "base.toml", "Workers = 2\nPolicy = \"static\"\nMaxIters = 10\n[View]\nAddr = \":1\"\n")
	writeFile(t, dir, "mid.toml", "Includes = [\"base.toml\"]\nMaxIters = 20\n")
	writeFile(t, dir, "top.toml", "Includes = [\"mid.toml\"]\nWorkers = 3\n")

	cfg := &testConfig{}
	_, err := Config(opts, cfg, []string{"-config", "top.toml", "-w", "5"})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "static", cfg.Policy)
	assert.Equal(t, 20, cfg.MaxIters)
	assert.Equal(t, ":1", cfg.View.Addr)
	assert.Equal(t, []string{"mid.toml", "base.toml"}, cfg.Includes)

	// default files are read when present
	opts.DefaultFiles = []string{"missing.toml", "base.toml"}
	cfg = &testConfig{}
	_, err = Config(opts, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)

	writeFile(t, dir, "loop.toml", "Includes = [\"loop2.toml\"]\n")
	writeFile(t, dir, "loop2.toml", "Includes = [\"loop.toml\"]\n")
	_, err = Config(opts, &testConfig{}, []string{"--config=loop.toml"})
	assert.Error(t, err)

	writeFile(t, dir, "typo.toml", "Wrkers = 3\n")
	_, err = Config(opts, &testConfig{}, []string{"-config", "typo.toml"})
	assert.Error(t, err)

	_, err = Config(opts, &testConfig{}, []string{"-config", "nowhere.toml"})
	assert.Error(t, err)
}

func runControl(cfg *testConfig) error { cfg.Policy = "ran control"; return nil }

func TestRunCommands(t *testing.T) {
	opts, buf := testOptions(t)
	var ran string
	root := &Cmd[*testConfig]{Name: "run", Root: true, Func: func(c *testConfig) error { ran = "run"; return nil }}
	worker := &Cmd[*testConfig]{Name: "worker", Doc: "run a worker", Func: func(c *testConfig) error { ran = "worker"; return nil }}
	control := CmdFromFunc(runControl, "run the control process")
	assert.Equal(t, "run-control", control.Name)

	cfg := &testConfig{}
	require.NoError(t, RunArgs(opts, cfg, []string{"worker", "-w", "2"}, root, worker, control))
	assert.Equal(t, "worker", ran)
	assert.Equal(t, 2, cfg.Workers)

	require.NoError(t, RunArgs(opts, &testConfig{}, []string{"-w", "2"}, root, worker, control))
	assert.Equal(t, "run", ran)

	cfg = &testConfig{}
	require.NoError(t, RunArgs(opts, cfg, []string{"run-control"}, root, worker, control))
	assert.Equal(t, "ran control", cfg.Policy)

	require.NoError(t, RunArgs(opts, &testConfig{}, []string{"-h"}, root, worker, control))
	assert.Contains(t, buf.String(), "run a worker")
	assert.Contains(t, buf.String(), "number of workers")
	assert.Contains(t, buf.String(), "-view.addr")

	assert.Error(t, RunArgs(opts, &testConfig{}, nil, worker))

	failing := &Cmd[*testConfig]{Name: "fail", Func: func(c *testConfig) error { return errors.New("no workers joined") }}
	assert.Error(t, RunArgs(opts, &testConfig{}, []string{"fail"}, failing))
	assert.Contains(t, buf.String(), "fail: no workers joined")
}
