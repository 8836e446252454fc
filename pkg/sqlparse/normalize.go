// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package sqlparse turns SQL text into cache keys and syntax trees into JSON.
package sqlparse

import "strings"

// Normalize collapses every run of whitespace into a single space and trims
// both ends. It is purely lexical: whitespace inside quoted literals is
// collapsed too, so two texts that differ only there share a cache key.
func Normalize(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
