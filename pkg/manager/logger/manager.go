// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"context"
	"encoding/json"

	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/logger"
	"github.com/pingcap/sqlast/lib/util/waitgroup"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerManager owns the main logger and applies the online part of the log
// config whenever the config manager publishes a new config.
type LoggerManager struct {
	// The logger used by LoggerManager itself to log.
	logger *zap.Logger
	syncer *logger.AtomicWriteSyncer
	level  zap.AtomicLevel
	cancel context.CancelFunc
	wg     waitgroup.WaitGroup
}

func NewLoggerManager(cfg *config.Log) (*LoggerManager, *zap.Logger, error) {
	lm := &LoggerManager{}
	if cfg == nil {
		cfg = &config.NewConfig().Log
	}
	mainLogger, syncer, level, err := logger.BuildLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	lm.syncer = syncer
	lm.level = level
	mainLogger = mainLogger.Named("main")
	lm.logger = mainLogger.Named("lgmgr")
	return lm, mainLogger, nil
}

func (lm *LoggerManager) Init(cfgch <-chan *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	lm.cancel = cancel

	lm.wg.Run(func() {
		lm.watchCfg(ctx, cfgch)
	})
}

func (lm *LoggerManager) watchCfg(ctx context.Context, cfgch <-chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case acfg, ok := <-cfgch:
			if !ok || acfg == nil {
				return
			}

			cfg := &acfg.Log.LogOnline
			if err := lm.updateLoggerCfg(cfg); err != nil {
				bytes, merr := json.Marshal(cfg)
				lm.logger.Error("update logger configuration failed",
					zap.NamedError("update error", err),
					zap.String("cfg", string(bytes)),
					zap.NamedError("cfg marshal error", merr),
				)
			}
		}
	}
}

func (lm *LoggerManager) updateLoggerCfg(cfg *config.LogOnline) error {
	// encoder cannot be configured dynamically, because Core.With always clones the encoder.
	if err := lm.syncer.Rebuild(cfg); err != nil {
		return err
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	lm.level.SetLevel(level)
	return nil
}

// SetLoggerLevel is used to force some messages to be printed regardless of the config.
func (lm *LoggerManager) SetLoggerLevel(l zapcore.Level) {
	lm.level.SetLevel(l)
}

func (lm *LoggerManager) Close() error {
	if lm.cancel != nil {
		lm.cancel()
	}
	lm.wg.Wait()
	return lm.syncer.Close()
}
