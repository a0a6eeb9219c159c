// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx implements structured log handling and provides
// global log verbosity and color options.
package logx

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// UserLevel is the verbosity [slog.Level] that the user has selected for
// what logging and printing messages should be shown. Messages at
// levels at or above this level will be shown. It should typically
// be set through the app's config. It defaults to [slog.LevelInfo],
// or [slog.LevelDebug] with the "debug" build tag and [slog.LevelWarn]
// with the "release" build tag.
var UserLevel = &slog.LevelVar{}

// UseColor is whether to use color in log messages.
// It is on by default and only takes effect when the
// output is a terminal that supports it.
var UseColor = true

func init() {
	UserLevel.Set(defaultUserLevel)
	slog.SetDefault(slog.New(NewHandler(os.Stderr)))
}

// ParseLevel returns the [slog.Level] for the given name
// (debug, info, warn or error, case insensitive).
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logx.ParseLevel: unknown level %q", name)
}

// SetLevel sets [UserLevel] from the given level name.
func SetLevel(name string) error {
	lv, err := ParseLevel(name)
	if err != nil {
		return err
	}
	UserLevel.Set(lv)
	return nil
}
