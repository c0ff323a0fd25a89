// This file is part of the Chaos Compiler Collection.
// SPDX-License-Identifier: MIT

package ccc

import (
	"fmt"
	"runtime"
)

// Error is the structured failure type every fallible operation in the core
// returns instead of panicking. It carries the call site so diagnostics read
// the same way regardless of how deep in the STABS/.mdebug machinery the
// failure originated.
type Error struct {
	Message string
	File    string
	Line    int
	// Fatal distinguishes the two tiers spec.md §7 describes: a fatal error
	// aborts the containing unit (a file, a symbol table import); a warning
	// is logged and parsing continues in loose mode.
	Fatal bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

func newError(fatal bool, format string, args ...any) *Error {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "unknown", 0
	}
	return &Error{Message: fmt.Sprintf(format, args...), File: file, Line: line, Fatal: fatal}
}

// Fatalf builds a fatal *Error, the "aborts the containing unit" kind.
func Fatalf(format string, args ...any) *Error { return newError(true, format, args...) }

// Warnf builds a non-fatal *Error, the "logged and recovered from" kind.
func Warnf(format string, args ...any) *Error { return newError(false, format, args...) }

// Result is a value-or-error wrapper, the Go analogue of the original's
// Result<T>. The core's own functions (the STABS parser, the lowering
// visitor, the local symbol table analyzer and the readers) return
// (T, error) the idiomatic Go way, with *Error as the concrete error;
// Result holds a value and an *Error together for callers that want one
// return value.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Err wraps a failure.
func Err[T any](e *Error) Result[T] { return Result[T]{err: e} }

// IsError reports whether the result carries a failure.
func (r Result[T]) IsError() bool { return r.err != nil }

// Error returns the carried failure, or nil on success.
func (r Result[T]) Error() *Error { return r.err }

// Get unwraps the result the idiomatic Go way, for callers at the boundary
// between the Result-based core and ordinary Go code.
func (r Result[T]) Get() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// Must unwraps the result or panics; reserved for test code and invariants
// that cannot fail by construction.
func (r Result[T]) Must() T {
	if r.err != nil {
		panic(r.err)
	}
	return r.value
}
