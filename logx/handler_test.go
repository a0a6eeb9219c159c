// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	l := slog.New(NewHandler(buf, termenv.WithProfile(termenv.Ascii)))

	old := UserLevel.Level()
	defer UserLevel.Set(old)
	UserLevel.Set(slog.LevelInfo)

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.With("rank", 0).WithGroup("row").Info("received", "index", 12, "note", "two words")
	s := buf.String()
	assert.Contains(t, s, "INFO received rank=0 row.index=12")
	assert.Contains(t, s, `row.note="two words"`)
}

func TestParseLevel(t *testing.T) {
	lv, err := ParseLevel("WARN")
	assert.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lv)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
