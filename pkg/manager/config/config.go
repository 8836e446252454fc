// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"hash/crc32"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/errors"
	"go.uber.org/zap"
)

func (e *ConfigManager) reloadConfigFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.WithStack(err)
	}

	return e.SetTOMLConfig(data)
}

// SetTOMLConfig will do partial config update. Users expect config changes
// only for the items they specified, and it is impossible to tell whether
// `cache.ttl == 0` means no user input or an explicit 0.
// So the current config is always updated with a TOML string, which only
// overwrites the fields that are present. The CLI overlay wins over the file.
func (e *ConfigManager) SetTOMLConfig(data []byte) (err error) {
	e.sts.Lock()
	defer func() {
		if err == nil {
			e.logger.Info("current config", zap.Any("cfg", e.sts.current))
		}
		e.sts.Unlock()
	}()

	base := e.sts.current
	if base == nil {
		base = config.NewConfig()
	} else {
		base = base.Clone()
	}

	if err = toml.Unmarshal(data, base); err != nil {
		return errors.WithStack(err)
	}

	if err = toml.Unmarshal(e.overlay, base); err != nil {
		return errors.WithStack(err)
	}

	if err = base.Check(); err != nil {
		return
	}

	e.sts.current = base
	var buf bytes.Buffer
	if err = toml.NewEncoder(&buf).Encode(base); err != nil {
		return errors.WithStack(err)
	}
	e.sts.checksum = crc32.ChecksumIEEE(buf.Bytes())

	for _, list := range e.sts.listeners {
		select {
		case list <- base.Clone():
		case <-e.done():
			return
		}
	}

	return
}

func (e *ConfigManager) done() <-chan struct{} {
	if e.ctx == nil {
		return nil
	}
	return e.ctx.Done()
}

func (e *ConfigManager) GetConfig() *config.Config {
	e.sts.Lock()
	v := e.sts.current
	e.sts.Unlock()
	return v
}

func (e *ConfigManager) GetConfigChecksum() uint32 {
	e.sts.Lock()
	c := e.sts.checksum
	e.sts.Unlock()
	return c
}

// WatchConfig returns a channel that receives a clone of every config applied
// after the call. The receiver must keep draining it until the manager closes.
func (e *ConfigManager) WatchConfig() <-chan *config.Config {
	ch := make(chan *config.Config)
	e.sts.Lock()
	e.sts.listeners = append(e.sts.listeners, ch)
	e.sts.Unlock()
	return ch
}
