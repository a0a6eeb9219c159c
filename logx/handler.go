// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// Handler is a [slog.Handler] whose output resembles that of [log.Logger],
// with the level colored according to its severity. Use [NewHandler]
// to make a new [Handler] from a writer.
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	out    *termenv.Output
	prefix string // preformatted attributes from WithAttrs
	group  string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler makes a new [Handler] writing to the given writer.
// The termenv options can be used to force a color profile,
// for example termenv.WithProfile(termenv.Ascii) in tests.
func NewHandler(w io.Writer, opts ...termenv.OutputOption) *Handler {
	return &Handler{
		mu:  &sync.Mutex{},
		w:   w,
		out: termenv.NewOutput(w, opts...),
	}
}

// Enabled reports whether the given level is at or above [UserLevel].
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= UserLevel.Level()
}

// Handle formats and writes the given record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	buf := &bytes.Buffer{}
	if !r.Time.IsZero() {
		buf.WriteString(r.Time.Format("15:04:05.000"))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.levelString(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(buf, h.group, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler that always adds the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	buf := &bytes.Buffer{}
	buf.WriteString(h.prefix)
	for _, a := range attrs {
		appendAttr(buf, h.group, a)
	}
	nh := *h
	nh.prefix = buf.String()
	return &nh
}

// WithGroup returns a new handler that qualifies subsequent
// attribute keys with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if nh.group != "" {
		nh.group += "."
	}
	nh.group += name
	return &nh
}

func (h *Handler) levelString(level slog.Level) string {
	str := level.String()
	if !UseColor {
		return str
	}
	var color string
	switch {
	case level >= slog.LevelError:
		color = "1"
	case level >= slog.LevelWarn:
		color = "3"
	case level >= slog.LevelInfo:
		color = "2"
	default:
		color = "6"
	}
	return h.out.String(str).Foreground(h.out.Color(color)).Bold().String()
}

func appendAttr(buf *bytes.Buffer, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" && key != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		if key == "" {
			key = group
		}
		for _, ga := range a.Value.Group() {
			appendAttr(buf, key, ga)
		}
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteByte('=')
	val := a.Value.String()
	if val == "" || strings.ContainsAny(val, " \t\n\"=") {
		val = strconv.Quote(val)
	}
	buf.WriteString(val)
}
