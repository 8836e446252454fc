// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	LblDialect = "dialect"

	LookupHit  = "hit"
	LookupMiss = "miss"
)

var (
	CacheLookupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleSQLAst,
			Subsystem: LabelCache,
			Name:      "lookups_total",
			Help:      "Counter of parse cache lookups.",
		}, []string{LblResult})

	CacheEvictionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: ModuleSQLAst,
			Subsystem: LabelCache,
			Name:      "evictions_total",
			Help:      "Counter of entries evicted from the parse cache by capacity or TTL.",
		})

	CacheEntriesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleSQLAst,
			Subsystem: LabelCache,
			Name:      "entries",
			Help:      "Number of entries in the parse cache.",
		})

	ParseFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleSQLAst,
			Subsystem: LabelService,
			Name:      "parse_failures_total",
			Help:      "Counter of SQL texts the parser rejected.",
		}, []string{LblDialect})
)
