// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/lib/util/waitgroup"
	"go.uber.org/zap"
)

type ConfigManager struct {
	wg     waitgroup.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	// overlay is the TOML encoding of the CLI flags. It is applied after the
	// config file every time the file is loaded.
	overlay []byte
	file    string

	sts struct {
		sync.Mutex
		listeners []chan<- *config.Config
		current   *config.Config
		checksum  uint32
	}
}

func NewConfigManager() *ConfigManager {
	return &ConfigManager{}
}

// Init loads the config file and the overlay, then watches the file for changes.
// An empty configFile means the defaults plus the overlay.
func (e *ConfigManager) Init(ctx context.Context, logger *zap.Logger, configFile string, overlay *config.Config) error {
	var err error
	e.logger = logger
	e.file = configFile
	e.ctx, e.cancel = context.WithCancel(ctx)

	if overlay != nil {
		if e.overlay, err = toml.Marshal(overlay); err != nil {
			return errors.WithStack(err)
		}
	}

	if configFile == "" {
		return e.SetTOMLConfig(nil)
	}
	if err = e.reloadConfigFile(configFile); err != nil {
		return err
	}
	return e.watchConfigFile(e.ctx, configFile)
}

func (e *ConfigManager) Close() error {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	return nil
}
