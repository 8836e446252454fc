// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/waitgroup"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupLogManager(t *testing.T, cfg *config.Config) (*zap.Logger, chan<- *config.Config) {
	lm, lg, err := NewLoggerManager(&cfg.Log)
	require.NoError(t, err)
	ch := make(chan *config.Config)
	lm.Init(ch)
	t.Cleanup(func() {
		require.NoError(t, lm.Close())
	})
	return lg, ch
}

func TestUpdateLevelAndFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")
	cfg := config.NewConfig()
	cfg.Log.LogFile.Filename = first

	lg, ch := setupLogManager(t, cfg)
	// Cloned loggers must follow the new config, too.
	lg = lg.Named("another").With(zap.String("field", "test_field"))
	lg.Info("before_update")

	newCfg := cfg.Clone()
	newCfg.Log.Level = "error"
	newCfg.Log.LogFile.Filename = second
	ch <- newCfg
	// The channel is unbuffered, so the second send returns only after the first config is applied.
	ch <- newCfg

	lg.Info("filtered_info")
	lg.Error("after_update")
	require.NoError(t, lg.Sync())

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(second)
		return err == nil && strings.Contains(string(data), "after_update")
	}, 3*time.Second, 10*time.Millisecond)
	data, err := os.ReadFile(second)
	require.NoError(t, err)
	require.NotContains(t, string(data), "filtered_info")
	require.NotContains(t, string(data), "before_update")

	data, err = os.ReadFile(first)
	require.NoError(t, err)
	require.Contains(t, string(data), "before_update")
}

func TestBadConfigKeepsLogger(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Log.LogFile.Filename = filepath.Join(t.TempDir(), "a.log")
	lg, ch := setupLogManager(t, cfg)

	newCfg := cfg.Clone()
	newCfg.Log.Level = "no_such_level"
	ch <- newCfg
	ch <- newCfg
	lg.Info("still works")
}

func TestLogConcurrently(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.Log.LogFile = config.LogFile{
		Filename:   filepath.Join(dir, "sqlast.log"),
		MaxSize:    1,
		MaxDays:    2,
		MaxBackups: 3,
	}

	lg, ch := setupLogManager(t, cfg)
	var wg waitgroup.WaitGroup
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		wg.Run(func() {
			l := lg
			for ctx.Err() == nil {
				l = l.Named("test_name")
				l.Info("test_info")
				l.Warn("test_warn")
				l = l.With(zap.String("with", "test_with"))
				l.Error("test_error")
			}
		})
	}
	wg.Run(func() {
		newCfg := cfg.Clone()
		for i := 0; ctx.Err() == nil; i++ {
			newCfg.Log.LogFile.MaxDays = i % 10
			newCfg.Log.LogFile.MaxBackups = i % 7
			select {
			case ch <- newCfg.Clone():
			case <-ctx.Done():
			}
			time.Sleep(10 * time.Millisecond)
		}
	})
	wg.Wait()
}
