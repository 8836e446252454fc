// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"runtime"
	"testing"

	"github.com/pingcap/sqlast/lib/util/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestStartMetricsManager(t *testing.T) {
	log, _ := logger.CreateLoggerForTest(t)
	// Init twice must not register the collectors twice.
	for i := 0; i < 2; i++ {
		mm := NewMetricsManager()
		mm.Init(context.Background(), log)
		mm.Close()
	}
	procs, err := ReadGauge(MaxProcsGauge)
	require.NoError(t, err)
	require.Equal(t, float64(runtime.GOMAXPROCS(0)), procs)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestReadMetrics(t *testing.T) {
	before, err := ReadCounter(APIRequestCounter.WithLabelValues(OpParse, ResultOK))
	require.NoError(t, err)
	APIRequestCounter.WithLabelValues(OpParse, ResultOK).Inc()
	after, err := ReadCounter(APIRequestCounter.WithLabelValues(OpParse, ResultOK))
	require.NoError(t, err)
	require.Equal(t, before+1, after)

	observer := APIDurationHistogram.WithLabelValues(OpFingerprint)
	cnt, err := ReadHistogramCount(observer)
	require.NoError(t, err)
	observer.Observe(0.001)
	newCnt, err := ReadHistogramCount(observer)
	require.NoError(t, err)
	require.Equal(t, cnt+1, newCnt)

	CacheEntriesGauge.Set(3)
	results, err := Collect(CacheEntriesGauge)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, float64(3), results[0].Gauge.GetValue())
}
