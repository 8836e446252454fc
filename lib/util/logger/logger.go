// Copyright 2023 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/pingcap/sqlast/lib/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// testingLog sends every line to the test log and keeps a copy for assertions.
type testingLog struct {
	tb  testing.TB
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *testingLog) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tb.Logf("%s", b)
	return l.buf.Write(b)
}

func (l *testingLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// CreateLoggerForTest returns a logger named after the test and the text it
// has logged so far. Lines use the console layout of the server log.
func CreateLoggerForTest(tb testing.TB) (*zap.Logger, fmt.Stringer) {
	log := &testingLog{tb: tb}
	encoder, err := buildEncoder(&config.Log{Encoder: "console"})
	if err != nil {
		tb.Fatal(err)
	}
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(log), zap.DebugLevel)).Named(tb.Name()), log
}
