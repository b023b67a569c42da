// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger setup. File enables a rotated JSON log in addition
// to the console output.
type Options struct {
	Level  string
	Format string // "console" or "json"
	File   string
}

// New builds a logger writing to w and, when opts.File is set, to a rotating
// file. The returned closer releases the file and is never nil.
func New(opts Options, w io.Writer) (*slog.Logger, io.Closer) {
	lvl := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(w, hopts)
	} else {
		console = slog.NewTextHandler(w, hopts)
	}

	if strings.TrimSpace(opts.File) == "" {
		return slog.New(console).With(slog.String("app", "timeline-editor")), nopCloser{}
	}

	file := &lj.Logger{Filename: opts.File, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
	h := fanout(console, slog.NewJSONHandler(file, hopts))
	return slog.New(h).With(slog.String("app", "timeline-editor")), file
}

// Init installs a logger built from opts as slog.Default.
func Init(opts Options) (*slog.Logger, io.Closer) {
	l, c := New(opts, os.Stderr)
	slog.SetDefault(l)
	return l, c
}

// WithComponent tags l with a component attribute.
func WithComponent(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With(slog.String("component", name))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multi sends every record to all of its handlers.
type multi struct{ hs []slog.Handler }

func fanout(hs ...slog.Handler) slog.Handler { return &multi{hs: hs} }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithAttrs(attrs)
	}
	return &multi{hs: out}
}

func (m *multi) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithGroup(name)
	}
	return &multi{hs: out}
}
