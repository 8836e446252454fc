// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"runtime"
	"sync"

	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

const (
	ModuleSQLAst = "sqlast"
)

// metrics labels.
const (
	LabelServer  = "server"
	LabelAPI     = "api"
	LabelCache   = "cache"
	LabelService = "service"
)

var registerOnce sync.Once

// MetricsManager registers the collectors and keeps the runtime gauges up to date.
type MetricsManager struct {
	cancel context.CancelFunc
	logger *zap.Logger
}

func NewMetricsManager() *MetricsManager {
	return &MetricsManager{}
}

func (mm *MetricsManager) Init(ctx context.Context, logger *zap.Logger) {
	mm.logger = logger
	_, mm.cancel = context.WithCancel(ctx)
	registerOnce.Do(registerSQLAstMetrics)
	MaxProcsGauge.Set(float64(runtime.GOMAXPROCS(0)))
	// Enable the mutex profile, 1/10 of mutex blocking event sampling.
	runtime.SetMutexProfileFraction(10)
	mm.logger.Info("metrics registered", zap.Int("maxprocs", runtime.GOMAXPROCS(0)))
}

func (mm *MetricsManager) Close() {
	if mm.cancel != nil {
		mm.cancel()
	}
}

func registerSQLAstMetrics() {
	prometheus.DefaultRegisterer.Unregister(collectors.NewGoCollector())
	prometheus.MustRegister(collectors.NewGoCollector(collectors.WithGoCollections(collectors.GoRuntimeMetricsCollection | collectors.GoRuntimeMemStatsCollection)))

	prometheus.MustRegister(MaxProcsGauge)
	prometheus.MustRegister(ServerEventCounter)
	prometheus.MustRegister(ServerErrCounter)
	prometheus.MustRegister(APIRequestCounter)
	prometheus.MustRegister(APIDurationHistogram)
	prometheus.MustRegister(CacheLookupCounter)
	prometheus.MustRegister(CacheEvictionCounter)
	prometheus.MustRegister(CacheEntriesGauge)
	prometheus.MustRegister(ParseFailureCounter)
}

// ReadCounter reads the value from the counter. It is only used for testing.
func ReadCounter(counter prometheus.Counter) (int, error) {
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		return 0, err
	}
	return int(metric.Counter.GetValue()), nil
}

// ReadGauge reads the value from the gauge. It is only used for testing.
func ReadGauge(gauge prometheus.Gauge) (float64, error) {
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		return 0, err
	}
	return metric.Gauge.GetValue(), nil
}

// ReadHistogramCount reads the sample count of an observer created from a HistogramVec.
func ReadHistogramCount(observer prometheus.Observer) (uint64, error) {
	metric, ok := observer.(prometheus.Metric)
	if !ok {
		return 0, errors.New("observer is not a metric")
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		return 0, err
	}
	return m.Histogram.GetSampleCount(), nil
}

// Collect gathers every metric of a collector. It is only used for testing.
func Collect(coll prometheus.Collector) ([]*dto.Metric, error) {
	results := make([]*dto.Metric, 0)
	ch := make(chan prometheus.Metric)
	go func() {
		coll.Collect(ch)
		close(ch)
	}()
	for m := range ch {
		var metric dto.Metric
		if err := m.Write(&metric); err != nil {
			return nil, err
		}
		results = append(results, &metric)
	}
	return results, nil
}
