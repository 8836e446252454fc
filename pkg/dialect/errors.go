// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package dialect

import "github.com/pingcap/sqlast/lib/util/errors"

var (
	ErrUnsupportedDialect = errors.New("unsupported dialect")
	ErrParse              = errors.New("failed to parse SQL")
	ErrRestore            = errors.New("failed to restore SQL")
)
