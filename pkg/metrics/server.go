// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	LblType = "type"

	EventStart = "start"
	EventClose = "close"
	// EventMemoryAlarm is counted when the memory usage is too high and the cache is purged.
	EventMemoryAlarm = "memory_alarm"
)

var (
	MaxProcsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleSQLAst,
			Subsystem: LabelServer,
			Name:      "maxprocs",
			Help:      "The value of GOMAXPROCS.",
		})

	ServerEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleSQLAst,
			Subsystem: LabelServer,
			Name:      "event",
			Help:      "Counter of server event.",
		}, []string{LblType})

	ServerErrCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleSQLAst,
			Subsystem: LabelServer,
			Name:      "err",
			Help:      "Counter of server error.",
		}, []string{LblType})
)
