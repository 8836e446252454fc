// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
)

const defaultStackDepth = 48

var (
	_ error         = &Error{}
	_ fmt.Formatter = &Error{}
	_ fmt.Formatter = stacktrace(nil)
)

// Error attaches the call stack to an error. The stack is only printed with
// %v and %+s, so Error() keeps the plain message.
type Error struct {
	err   error
	trace stacktrace
}

func WithStack(err error) error {
	if err == nil {
		return nil
	}
	e := &Error{err: err}
	e.trace = make(stacktrace, defaultStackDepth)
	n := runtime.Callers(2, e.trace)
	e.trace = e.trace[:n]
	return e
}

func (e *Error) Format(st fmt.State, verb rune) {
	switch verb {
	case 'v':
		if st.Flag('+') {
			fmt.Fprintf(st, "%+v", e.err)
		} else {
			fmt.Fprintf(st, "%v", e.err)
		}
		e.trace.Format(st, 'v')
	case 's':
		if st.Flag('+') {
			fmt.Fprintf(st, "%+s", e.err)
			e.trace.Format(st, 's')
		} else {
			fmt.Fprintf(st, "%s", e.err)
		}
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s", e)
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *Error) As(target any) bool {
	return errors.As(e.err, target)
}

// Unwrap skips the stack layer.
func (e *Error) Unwrap() error {
	return errors.Unwrap(e.err)
}

type stacktrace []uintptr

func (st stacktrace) Format(s fmt.State, verb rune) {
	frames := runtime.CallersFrames(st)
	for {
		fr, more := frames.Next()
		fn := fr.Function
		if fn == "" {
			fn = "unknown"
		}
		_, _ = io.WriteString(s, "\n")
		_, _ = io.WriteString(s, fn)
		_, _ = io.WriteString(s, "\n\t")
		_, _ = io.WriteString(s, fr.File)
		if s.Flag('+') {
			_, _ = io.WriteString(s, ":")
			_, _ = io.WriteString(s, strconv.Itoa(fr.Line))
		}
		if !more {
			break
		}
	}
}
