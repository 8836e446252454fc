// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package sctx

import (
	"github.com/pingcap/sqlast/lib/config"
)

// Context carries what the command line passes to the server.
type Context struct {
	// Overlay holds the values set by flags. They take precedence over the config file.
	Overlay    config.Config
	ConfigFile string
}
