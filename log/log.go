// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

// Package log is the small kratos-style structured logger used throughout
// the core and CLI, reconstructed from its call sites in the teacher's
// file.go (github.com/saferwall/pe/log isn't part of the retrieved pack,
// so this package stands in for it under the module's own path) and
// extended with a writerset-based fan-out sink so one import run can log
// to stderr and an optional diagnostics file at once.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/stephens2424/writerset"
)

// Level is a log severity, ordered from most to least verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the minimal structured-logging interface the rest of the
// module depends on; Log is called once per message with an even count of
// key/value pairs following the level.
type Logger interface {
	Log(level Level, keyvals ...any) error
}

// stdLogger writes one line per call to an underlying io.Writer.
type stdLogger struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStdLogger builds a Logger that writes timestamped, space-separated
// key=value lines to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{out: w}
}

func (l *stdLogger) Log(level Level, keyvals ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "%s level=%s", time.Now().Format(time.RFC3339), level)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(l.out, " %v=%v", keyvals[i], keyvals[i+1])
	}
	fmt.Fprintln(l.out)
	return nil
}

// filterLogger wraps another Logger, dropping messages below a minimum
// level.
type filterLogger struct {
	next Logger
	min  Level
}

// FilterOption configures a filter built by NewFilter.
type FilterOption func(*filterLogger)

// FilterLevel sets the minimum level a filtered Logger lets through.
func FilterLevel(level Level) FilterOption {
	return func(f *filterLogger) { f.min = level }
}

// NewFilter wraps logger with the given options (currently just a minimum
// level, matching file.go's only use: log.NewFilter(logger,
// log.FilterLevel(log.LevelError))).
func NewFilter(logger Logger, opts ...FilterOption) Logger {
	f := &filterLogger{next: logger, min: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filterLogger) Log(level Level, keyvals ...any) error {
	if level < f.min {
		return nil
	}
	return f.next.Log(level, keyvals...)
}

// Helper is the ergonomic, printf-style front end over a Logger, the same
// shape as the one file.go calls as pe.logger.Errorf/.Debugf.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger in a Helper.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, format string, args ...any) {
	_ = h.logger.Log(level, "msg", fmt.Sprintf(format, args...))
}

func (h *Helper) Debugf(format string, args ...any) { h.log(LevelDebug, format, args...) }
func (h *Helper) Infof(format string, args ...any)  { h.log(LevelInfo, format, args...) }
func (h *Helper) Warnf(format string, args ...any)  { h.log(LevelWarn, format, args...) }
func (h *Helper) Errorf(format string, args ...any) { h.log(LevelError, format, args...) }
func (h *Helper) Fatalf(format string, args ...any) {
	h.log(LevelFatal, format, args...)
	os.Exit(1)
}

// FanOut is a Logger that writes to every sink added via Add, built on
// writerset.WriterSet so sinks (stderr, an optional diagnostics file) can
// be attached and detached without the logger holding direct references to
// them or needing to know how many there are.
type FanOut struct {
	set *writerset.WriterSet
}

// NewFanOut builds a FanOut with no sinks attached; use Add to attach one
// or more io.Writers (e.g. os.Stderr and the *os.File the CLI opens for
// its --log-file flag).
func NewFanOut() *FanOut {
	return &FanOut{set: writerset.New()}
}

// Add attaches w as an additional sink, returning a function that detaches
// it again.
func (f *FanOut) Add(w io.Writer) func() {
	return f.set.Add(w)
}

func (f *FanOut) Log(level Level, keyvals ...any) error {
	var line string
	line = fmt.Sprintf("%s level=%s", time.Now().Format(time.RFC3339), level)
	for i := 0; i+1 < len(keyvals); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	_, err := fmt.Fprintln(f.set, line)
	return err
}
