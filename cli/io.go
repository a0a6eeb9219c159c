// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"reflect"
	"slices"

	"github.com/parlab/mandelpool/base/errors"
	"github.com/parlab/mandelpool/base/fsx"
	"github.com/pelletier/go-toml/v2"
)

// includer is implemented by config types with an Includes field,
// listing other config files to read first.
type includer interface {
	IncludesPtr() *[]string
}

// openFiles reads the given TOML files into cfg, in order,
// so that later files override earlier ones.
func openFiles(cfg any, files ...string) error {
	var errs []error
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		err = toml.NewDecoder(f).DisallowUnknownFields().Decode(cfg)
		f.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
		}
	}
	return errors.Join(errs...)
}

// reflectNew returns a new zero value of the type that cfg points to.
func reflectNew(cfg any) any {
	return reflect.New(reflect.TypeOf(cfg).Elem()).Interface()
}

// includeStack returns the stack of include files in the natural
// order in which they are encountered (nil if none).
// Files should then be read in reverse order of the slice.
// Returns an error if any of the include files cannot be found on IncludePath.
// Does not alter cfg.
func includeStack(opts *Options, cfg includer) ([]string, error) {
	clone := reflectNew(cfg).(includer)
	var incs []string
	var errs []error
	queue := slices.Clone(*cfg.IncludesPtr())
	for len(queue) > 0 {
		inc := queue[0]
		queue = queue[1:]
		if slices.Contains(incs, inc) {
			return incs, fmt.Errorf("cli: include loop on %q", inc)
		}
		incs = append(incs, inc)
		files := fsx.FindFilesOnPaths(opts.IncludePaths, inc)
		if len(files) == 0 {
			errs = append(errs, fmt.Errorf("cli: include file %q not found on paths %v", inc, opts.IncludePaths))
			continue
		}
		*clone.IncludesPtr() = nil
		if err := openFiles(clone, files...); err != nil {
			errs = append(errs, err)
			continue
		}
		queue = append(queue, *clone.IncludesPtr()...)
	}
	return incs, errors.Join(errs...)
}

// openWithIncludes reads the config struct from the given config file
// using the given options, looking on [Options.IncludePaths] for the file.
// It opens any Includes specified in the given config file in the natural
// include order so that includers overwrite included settings.
// Is equivalent to Open if there are no Includes. It returns an error if
// any of the include files cannot be found on [Options.IncludePaths].
func openWithIncludes(opts *Options, cfg any, file string) error {
	files := fsx.FindFilesOnPaths(opts.IncludePaths, file)
	if len(files) == 0 {
		return fmt.Errorf("OpenWithIncludes: no files found for %q", file)
	}
	err := openFiles(cfg, files...)
	if err != nil {
		return err
	}
	incfg, ok := cfg.(includer)
	if !ok {
		return err
	}
	incs, err := includeStack(opts, incfg)
	ni := len(incs)
	if ni == 0 {
		return err
	}
	if err != nil {
		return err
	}
	for i := ni - 1; i >= 0; i-- {
		inc := incs[i]
		err = openFiles(cfg, fsx.FindFilesOnPaths(opts.IncludePaths, inc)...)
		if err != nil {
			return err
		}
	}
	// reopen original
	err = openFiles(cfg, files...)
	if err != nil {
		return err
	}
	*incfg.IncludesPtr() = incs
	return err
}
