// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	LblOp     = "op"
	LblResult = "result"

	OpParse       = "parse"
	OpFingerprint = "fingerprint"

	ResultOK       = "ok"
	ResultBadInput = "bad_input"
	ResultError    = "error"
)

var (
	APIRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleSQLAst,
			Subsystem: LabelAPI,
			Name:      "requests_total",
			Help:      "Counter of parse and fingerprint requests.",
		}, []string{LblOp, LblResult})

	APIDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ModuleSQLAst,
			Subsystem: LabelAPI,
			Name:      "handle_duration_seconds",
			Help:      "Bucketed histogram of processing time (s) of requests.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 20), // 50us ~ 26s
		}, []string{LblOp})
)
