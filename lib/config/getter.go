// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

type ConfigGetter interface {
	GetConfig() *Config
}

// HealthInfo is returned by the health API.
type HealthInfo struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	ConfigChecksum uint32 `json:"config_checksum"`
}
