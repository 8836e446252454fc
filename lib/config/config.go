// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"math"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/sqlast/lib/util/errors"
)

var (
	ErrInvalidConfigValue = errors.New("invalid config value")
)

const (
	DefaultAPIAddr          = "0.0.0.0:3000"
	DefaultCacheMaxCapacity = 10000
	DefaultCacheTTLSeconds  = 3600
	DefaultCacheShards      = 16
	// MaxCacheTTLSeconds is the longest TTL a time.Duration can hold.
	MaxCacheTTLSeconds uint64 = math.MaxInt64 / uint64(time.Second)
	// maxCacheShards bounds the lock striping. More shards only waste memory.
	maxCacheShards = 256
)

// Config is the whole server configuration. Fields tagged reloadable are
// applied to the running server when the config file changes.
type Config struct {
	API         API         `yaml:"api,omitempty" toml:"api,omitempty" json:"api,omitempty"`
	Cache       Cache       `yaml:"cache,omitempty" toml:"cache,omitempty" json:"cache,omitempty"`
	Fingerprint Fingerprint `yaml:"fingerprint,omitempty" toml:"fingerprint,omitempty" json:"fingerprint,omitempty"`
	Log         Log         `yaml:"log,omitempty" toml:"log,omitempty" json:"log,omitempty"`
}

type API struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty" json:"addr,omitempty"`
	// MaxRequestsPerSecond throttles the whole HTTP/gRPC endpoint. 0 means unlimited.
	MaxRequestsPerSecond int `yaml:"max-requests-per-second,omitempty" toml:"max-requests-per-second,omitempty" json:"max-requests-per-second,omitempty"`
}

type Cache struct {
	MaxCapacity int `yaml:"max-capacity,omitempty" toml:"max-capacity,omitempty" json:"max-capacity,omitempty"`
	// TTL is in seconds. 0 disables time-based expiry and only capacity evicts entries.
	TTL    uint64 `yaml:"ttl,omitempty" toml:"ttl,omitempty" json:"ttl,omitempty"`
	Shards int    `yaml:"shards,omitempty" toml:"shards,omitempty" json:"shards,omitempty"`
	// SingleFlight coalesces concurrent misses of the same key into one parse.
	SingleFlight bool `yaml:"single-flight,omitempty" toml:"single-flight,omitempty" json:"single-flight,omitempty"`
}

type Fingerprint struct {
	// MaxInValues is used when a request does not set max_in_values. 0 keeps all values.
	MaxInValues int `yaml:"max-in-values,omitempty" toml:"max-in-values,omitempty" json:"max-in-values,omitempty" reloadable:"true"`
}

type LogOnline struct {
	Level   string  `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty" reloadable:"true"`
	LogFile LogFile `yaml:"log-file,omitempty" toml:"log-file,omitempty" json:"log-file,omitempty" reloadable:"true"`
}

type Log struct {
	Encoder   string `yaml:"encoder,omitempty" toml:"encoder,omitempty" json:"encoder,omitempty"`
	LogOnline `yaml:",inline" toml:",inline" json:",inline"`
}

type LogFile struct {
	Filename   string `yaml:"filename,omitempty" toml:"filename,omitempty" json:"filename,omitempty" reloadable:"true"`
	MaxSize    int    `yaml:"max-size,omitempty" toml:"max-size,omitempty" json:"max-size,omitempty" reloadable:"true"`
	MaxDays    int    `yaml:"max-days,omitempty" toml:"max-days,omitempty" json:"max-days,omitempty" reloadable:"true"`
	MaxBackups int    `yaml:"max-backups,omitempty" toml:"max-backups,omitempty" json:"max-backups,omitempty" reloadable:"true"`
}

func NewConfig() *Config {
	var cfg Config

	cfg.API.Addr = DefaultAPIAddr

	cfg.Cache.MaxCapacity = DefaultCacheMaxCapacity
	cfg.Cache.TTL = DefaultCacheTTLSeconds
	cfg.Cache.Shards = DefaultCacheShards

	cfg.Log.Level = "info"
	cfg.Log.Encoder = "tidb"
	cfg.Log.LogFile.MaxSize = 300
	cfg.Log.LogFile.MaxDays = 3
	cfg.Log.LogFile.MaxBackups = 3

	return &cfg
}

func (cfg *Config) Clone() *Config {
	newCfg := *cfg
	return &newCfg
}

func (cfg *Config) Check() error {
	if cfg.API.Addr == "" {
		return errors.Wrapf(ErrInvalidConfigValue, "api.addr is empty")
	}
	if cfg.API.MaxRequestsPerSecond < 0 {
		return errors.Wrapf(ErrInvalidConfigValue, "api.max-requests-per-second must be non-negative")
	}
	if cfg.Cache.MaxCapacity <= 0 {
		return errors.Wrapf(ErrInvalidConfigValue, "cache.max-capacity must be positive")
	}
	if cfg.Cache.TTL > MaxCacheTTLSeconds {
		return errors.Wrapf(ErrInvalidConfigValue, "cache.ttl must not exceed %d seconds", MaxCacheTTLSeconds)
	}
	if cfg.Cache.Shards <= 0 {
		cfg.Cache.Shards = DefaultCacheShards
	}
	if cfg.Cache.Shards > maxCacheShards {
		cfg.Cache.Shards = maxCacheShards
	}
	if cfg.Fingerprint.MaxInValues < 0 {
		return errors.Wrapf(ErrInvalidConfigValue, "fingerprint.max-in-values must be non-negative")
	}
	switch cfg.Log.Encoder {
	case "tidb", "json", "console":
	default:
		return errors.Wrapf(ErrInvalidConfigValue, "log.encoder %q is not one of tidb, json, console", cfg.Log.Encoder)
	}
	return nil
}

func (cfg *Config) ToBytes() ([]byte, error) {
	b := new(bytes.Buffer)
	err := toml.NewEncoder(b).Encode(cfg)
	return b.Bytes(), errors.WithStack(err)
}
