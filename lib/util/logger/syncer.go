// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"os"
	"sync"

	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogMaxSize = 300 // MB
)

var (
	_ closableSyncer      = (*rotateLogger)(nil)
	_ closableSyncer      = (*stdoutLogger)(nil)
	_ zapcore.WriteSyncer = (*AtomicWriteSyncer)(nil)
)

type closableSyncer interface {
	zapcore.WriteSyncer
	Close() error
}

type rotateLogger struct {
	*lumberjack.Logger
}

func (lg *rotateLogger) Sync() error {
	return nil
}

type stdoutLogger struct {
	zapcore.WriteSyncer
}

func (lg *stdoutLogger) Close() error {
	return nil
}

// AtomicWriteSyncer lets every logger cloned from the main logger switch to
// a new output at once.
type AtomicWriteSyncer struct {
	sync.RWMutex
	output closableSyncer
}

func (ws *AtomicWriteSyncer) Rebuild(cfg *config.LogOnline) error {
	var output closableSyncer
	if len(cfg.LogFile.Filename) > 0 {
		fileLogger, err := initFileLog(&cfg.LogFile)
		if err != nil {
			return err
		}
		output = &rotateLogger{fileLogger}
	} else {
		stdLogger, _, err := zap.Open("stdout")
		if err != nil {
			return err
		}
		output = &stdoutLogger{stdLogger}
	}
	return ws.setOutput(output)
}

func (ws *AtomicWriteSyncer) Write(p []byte) (n int, err error) {
	ws.RLock()
	if ws.output != nil {
		n, err = ws.output.Write(p)
	}
	ws.RUnlock()
	return
}

func (ws *AtomicWriteSyncer) Sync() error {
	var err error
	ws.RLock()
	if ws.output != nil {
		err = ws.output.Sync()
	}
	ws.RUnlock()
	return err
}

func (ws *AtomicWriteSyncer) setOutput(output closableSyncer) error {
	var err error
	ws.Lock()
	if ws.output != nil {
		err = ws.output.Close()
	}
	ws.output = output
	ws.Unlock()
	return err
}

func (ws *AtomicWriteSyncer) Close() error {
	var err error
	ws.Lock()
	if ws.output != nil {
		err = ws.output.Close()
		ws.output = nil
	}
	ws.Unlock()
	return err
}

func initFileLog(cfg *config.LogFile) (*lumberjack.Logger, error) {
	if st, err := os.Stat(cfg.Filename); err == nil && st.IsDir() {
		return nil, errors.New("can't use directory as log file name")
	}
	maxSize := cfg.MaxSize
	if maxSize == 0 {
		maxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}
