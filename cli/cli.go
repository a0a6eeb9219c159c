// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli generates command line interfaces from config structs:
// fields become flags, `default:` tags give the defaults, TOML config
// files can be layered with includes, and functions taking the config
// become subcommands.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/parlab/mandelpool/base/errors"
	"github.com/parlab/mandelpool/base/fsx"
)

// Options contains the options passed to cli
// that control its behavior.
type Options struct {

	// AppName is the name of the command line app.
	AppName string

	// AppAbout is the description of the command line app.
	AppAbout string

	// DefaultFiles are the config files to open if they exist and
	// no config file is given with the -config flag.
	DefaultFiles []string

	// IncludePaths is a list of file paths to try for finding config
	// files specified in Include field or via the command line -config flag.
	// Set by default to the current directory.
	IncludePaths []string

	// Out is where help and errors are written. Defaults to os.Stderr.
	Out io.Writer
}

// DefaultOptions returns a new [Options] value
// with standard default values, based on the given
// app name and optional app about info.
func DefaultOptions(appName string, appAbout ...string) *Options {
	return &Options{
		AppName:      appName,
		AppAbout:     strings.Join(appAbout, " "),
		IncludePaths: []string{"."},
		Out:          os.Stderr,
	}
}

// Cmd represents a runnable command with configuration options.
// The type constraint is the type of the configuration
// information passed to the command.
type Cmd[T any] struct {

	// Func is the actual function that runs the command.
	// It takes configuration information and returns an error.
	Func func(T) error

	// Name is the name of the command, in kebab-case.
	Name string

	// Doc is the documentation for the command.
	Doc string

	// Root is whether the command is the root command
	// (what is called when no subcommands are passed)
	Root bool
}

// CmdFromFunc returns a new [Cmd] object from the given function,
// with its name the kebab-case form of the function name.
func CmdFromFunc[T any](fun func(T) error, doc ...string) *Cmd[T] {
	fn := runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name()
	if i := strings.LastIndex(fn, "."); i >= 0 {
		fn = fn[i+1:]
	}
	return &Cmd[T]{Func: fun, Name: strcase.ToKebab(fn), Doc: strings.Join(doc, " ")}
}

// cmdNames returns the name and doc of each command, for the usage.
func cmdNames[C any](cmds []*Cmd[C]) [][2]string {
	res := make([][2]string, len(cmds))
	for i, c := range cmds {
		nm := c.Name
		if c.Root {
			nm += " (default)"
		}
		res[i] = [2]string{nm, c.Doc}
	}
	return res
}

// SetRoot marks the command as the root command.
func (c *Cmd[T]) SetRoot() *Cmd[T] {
	c.Root = true
	return c
}

// Run runs an app with the given options, configuration struct,
// and commands. It sets the config from defaults, config files
// and the command line args (os.Args[1:]), and then runs the
// selected command. Help requests print the usage and return nil.
// Errors are written to [Options.Out] and returned.
func Run[C any](opts *Options, cfg C, cmds ...*Cmd[C]) error {
	return RunArgs(opts, cfg, os.Args[1:], cmds...)
}

// RunArgs is [Run] with explicit command line args.
func RunArgs[C any](opts *Options, cfg C, args []string, cmds ...*Cmd[C]) error {
	cmd, err := Config(opts, cfg, args, cmds...)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		fmt.Fprintf(opts.Out, "%s: %v\n", opts.AppName, err)
		return err
	}
	if cmd == nil {
		usage(opts, cmdNames(cmds), nil)
		return fmt.Errorf("no command given and no root command")
	}
	if err := cmd.Func(cfg); err != nil {
		fmt.Fprintf(opts.Out, "%s %s: %v\n", opts.AppName, cmd.Name, err)
		return err
	}
	return nil
}

// Config sets the given config struct from defaults, config files and
// args, and returns the command selected by the first arg (or the root
// command). It returns [flag.ErrHelp] after printing the usage if help
// was requested.
func Config[C any](opts *Options, cfg C, args []string, cmds ...*Cmd[C]) (*Cmd[C], error) {
	if err := SetFromDefaults(cfg); err != nil {
		return nil, err
	}
	var cmd *Cmd[C]
	for _, c := range cmds {
		if c.Root {
			cmd = c
		}
	}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		for _, c := range cmds {
			if c.Name == args[0] {
				cmd = c
				args = args[1:]
				break
			}
		}
	}

	if file, ok := configFlag(args); ok {
		if err := openWithIncludes(opts, cfg, file); err != nil {
			return cmd, err
		}
	} else {
		for _, file := range opts.DefaultFiles {
			if len(fsx.FindFilesOnPaths(opts.IncludePaths, file)) > 0 {
				if err := openWithIncludes(opts, cfg, file); err != nil {
					return cmd, err
				}
				break
			}
		}
	}

	fs, err := newFlagSet(opts, cfg)
	if err != nil {
		return cmd, err
	}
	fs.Usage = func() { usage(opts, cmdNames(cmds), fs) }
	if err := fs.Parse(args); err != nil {
		return cmd, err
	}
	if err := setPosArgs(cfg, fs.Args()); err != nil {
		return cmd, err
	}
	return cmd, nil
}

// configFlag returns the value of a -config or --config flag in args.
func configFlag(args []string) (string, bool) {
	for i, a := range args {
		if a == "--" {
			break
		}
		name, val, hasVal := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || (name != "config" && name != "cfg") {
			continue
		}
		if hasVal {
			return val, true
		}
		if i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}
