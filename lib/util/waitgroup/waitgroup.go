// Copyright 2023 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package waitgroup

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// WaitGroup tracks the background goroutines of a component so that Close
// can wait for them.
type WaitGroup struct {
	sync.WaitGroup
	panics atomic.Int64
}

// Run starts exec in a tracked goroutine. exec must not panic.
func (w *WaitGroup) Run(exec func()) {
	w.Add(1)
	go func() {
		defer w.Done()
		exec()
	}()
}

// RunWithRecover starts exec in a tracked goroutine that survives a panic.
// The panic is logged with its stack, the goroutine is marked done, and then
// recoverFn, if not nil, receives the recovered value. recoverFn runs after
// Done because it usually closes the owner, and closing waits on the group.
func (w *WaitGroup) RunWithRecover(exec func(), recoverFn func(r any), lg *zap.Logger) {
	w.Add(1)
	go func() {
		defer w.finish(recoverFn, lg)
		exec()
	}()
}

// Panics returns how many goroutines of the group have panicked so far.
func (w *WaitGroup) Panics() int64 {
	return w.panics.Load()
}

func (w *WaitGroup) finish(recoverFn func(r any), lg *zap.Logger) {
	r := recover()
	defer func() {
		// a panicking recoverFn stops here
		_ = recover()
	}()
	if r != nil {
		n := w.panics.Inc()
		if lg != nil {
			lg.Named("recover").Error("background goroutine panicked",
				zap.Any("panic", r),
				zap.Int64("panics", n),
				zap.Stack("stack"))
		}
	}
	w.Done()
	if r != nil && recoverFn != nil {
		recoverFn(r)
	}
}
