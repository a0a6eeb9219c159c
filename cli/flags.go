// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"flag"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/parlab/mandelpool/base/reflectx"
)

// fieldValue is a [flag.Value] for a config struct field.
type fieldValue struct {
	v reflect.Value
}

func (fv *fieldValue) String() string {
	if fv == nil || !fv.v.IsValid() {
		return ""
	}
	return reflectx.ToString(fv.v)
}

func (fv *fieldValue) Set(s string) error {
	return reflectx.SetString(fv.v, s)
}

func (fv *fieldValue) IsBoolFlag() bool {
	return fv.v.Kind() == reflect.Bool
}

// flagNames returns the flag names of a field: the kebab-case path
// of the field, with nested struct fields as section.field, and any
// names in its `flag:` tag. Fields with a `flag:"-"` tag or a
// `posarg:` tag have no flags.
func flagNames(f *reflectx.Field) []string {
	tag, hasTag := f.Tag.Lookup("flag")
	if tag == "-" {
		return nil
	}
	if _, ok := f.Tag.Lookup("posarg"); ok && !hasTag {
		return nil
	}
	path := make([]string, len(f.Path))
	for i, p := range f.Path {
		path[i] = strcase.ToKebab(p)
	}
	names := []string{strings.Join(path, ".")}
	if hasTag {
		for _, nm := range strings.Split(tag, ",") {
			nm = strings.TrimSpace(nm)
			if nm != "" && nm != names[0] {
				names = append(names, nm)
			}
		}
	}
	return names
}

// newFlagSet returns a flag set with a flag for each field of cfg.
func newFlagSet(opts *Options, cfg any) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet(opts.AppName, flag.ContinueOnError)
	fs.SetOutput(opts.Out)
	fs.String("config", "", "TOML config file to read before the command line flags")
	var err error
	werr := reflectx.WalkFields(cfg, func(f *reflectx.Field) bool {
		if f.Name == "Includes" {
			return true
		}
		doc := f.Tag.Get("desc")
		fv := &fieldValue{v: f.Value}
		for i, nm := range flagNames(f) {
			if fs.Lookup(nm) != nil {
				err = fmt.Errorf("cli: flag %q of field %s is defined twice", nm, strings.Join(f.Path, "."))
				return false
			}
			d := doc
			if i > 0 {
				d = "alias for -" + flagNames(f)[0]
			}
			fs.Var(fv, nm, d)
		}
		return true
	})
	if werr != nil {
		return nil, werr
	}
	return fs, err
}

// setPosArgs sets the fields with `posarg:"i"` tags from args.
// A `posarg:"all"` field, which must be a slice, gets all args.
func setPosArgs(cfg any, args []string) error {
	used := 0
	var err error
	werr := reflectx.WalkFields(cfg, func(f *reflectx.Field) bool {
		pa, ok := f.Tag.Lookup("posarg")
		if !ok {
			return true
		}
		if pa == "all" {
			err = reflectx.SetString(f.Value, strings.Join(args, ","))
			used = len(args)
			return err == nil
		}
		i, perr := strconv.Atoi(pa)
		if perr != nil {
			err = fmt.Errorf("cli: field %s: invalid posarg tag %q", f.Name, pa)
			return false
		}
		if i >= len(args) {
			return true
		}
		err = reflectx.SetString(f.Value, args[i])
		used = max(used, i+1)
		return err == nil
	})
	if werr != nil {
		return werr
	}
	if err != nil {
		return err
	}
	if used < len(args) {
		return fmt.Errorf("unexpected arguments %q", args[used:])
	}
	return nil
}

// usage writes the usage of the app to opts.Out.
func usage(opts *Options, cmds [][2]string, fs *flag.FlagSet) {
	w := opts.Out
	if w == nil {
		w = io.Discard
	}
	fmt.Fprintf(w, "%s", opts.AppName)
	if opts.AppAbout != "" {
		fmt.Fprintf(w, ": %s", opts.AppAbout)
	}
	fmt.Fprintf(w, "\n\nUsage:\n  %s [command] [flags]\n", opts.AppName)
	if len(cmds) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		for _, c := range cmds {
			fmt.Fprintf(w, "  %-22s %s\n", c[0], c[1])
		}
	}
	if fs != nil {
		fmt.Fprintf(w, "\nFlags:\n")
		fs.PrintDefaults()
	}
}
