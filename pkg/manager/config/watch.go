// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/lib/util/retry"
	"go.uber.org/zap"
)

const (
	reloadRetryInterval = 100 * time.Millisecond
	reloadMaxRetries    = 5
)

// watchConfigFile watches the directory rather than the file, so that the
// file can be replaced by editors or config management (remove + create).
func (e *ConfigManager) watchConfigFile(ctx context.Context, file string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithStack(err)
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		_ = watcher.Close()
		return errors.WithStack(err)
	}
	if err := watcher.Add(filepath.Dir(absFile)); err != nil {
		_ = watcher.Close()
		return errors.WithStack(err)
	}

	e.wg.Run(func() {
		defer func() {
			_ = watcher.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != absFile || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				e.reloadWithRetry(ctx, absFile)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				e.logger.Warn("watch config file failed", zap.Error(err))
			}
		}
	})
	return nil
}

// reloadWithRetry tolerates files that are observed while still being written.
func (e *ConfigManager) reloadWithRetry(ctx context.Context, file string) {
	err := retry.Retry(func() error {
		return e.reloadConfigFile(file)
	}, ctx, reloadRetryInterval, reloadMaxRetries)
	if err != nil && ctx.Err() == nil {
		e.logger.Warn("reload config file failed", zap.String("file", file), zap.Error(err))
	}
}
