// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	_ error = &WError{}
	_ error = &MError{}
)

// WError pairs a cause, usually a sentinel error, with the underlying error.
// errors.Is matches both of them, and the message reads "cause: detail".
type WError struct {
	cerr error
	uerr error
}

func (e *WError) Error() string {
	return fmt.Sprintf("%s: %s", e.cerr, e.uerr)
}

func (e *WError) Is(target error) bool {
	return errors.Is(e.cerr, target)
}

func (e *WError) Unwrap() error {
	return e.uerr
}

// Cause returns the sentinel the error was wrapped with.
func (e *WError) Cause() error {
	return e.cerr
}

// Wrap returns nil when cause is nil and the cause itself when uerr is nil.
func Wrap(cerr error, uerr error) error {
	if cerr == nil {
		return nil
	}
	if uerr == nil {
		return cerr
	}
	return &WError{cerr: cerr, uerr: uerr}
}

func Wrapf(cerr error, msg string, args ...any) error {
	if cerr == nil {
		return nil
	}
	return &WError{cerr: cerr, uerr: fmt.Errorf(msg, args...)}
}

// MError is a group of errors reported under one cause.
type MError struct {
	cerr error
	uerr []error
}

func (e *MError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.cerr.Error())
	sb.WriteString(":")
	for _, ue := range e.uerr {
		sb.WriteString("\n\t")
		sb.WriteString(ue.Error())
	}
	return sb.String()
}

func (e *MError) Is(target error) bool {
	if errors.Is(e.cerr, target) {
		return true
	}
	for _, ue := range e.uerr {
		if errors.Is(ue, target) {
			return true
		}
	}
	return false
}

func (e *MError) Cause() []error {
	return e.uerr
}

// Collect drops nil errors and returns nil if nothing is left.
func Collect(cerr error, uerr ...error) error {
	n := 0
	for _, e := range uerr {
		if e != nil {
			uerr[n] = e
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &MError{cerr: cerr, uerr: uerr[:n]}
}
