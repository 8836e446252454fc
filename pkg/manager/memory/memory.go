// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/waitgroup"
	"github.com/pingcap/sqlast/pkg/metrics"
	"github.com/pingcap/tidb/pkg/util/memory"
	"go.uber.org/zap"
)

const (
	checkInterval = 30 * time.Second
	// Alarms closer than this are ignored.
	alarmMinInterval = 5 * time.Minute
	// Alarm when the memory usage is higher than 60%.
	alarmThreshold = 0.6
	// Remove the oldest profiles when the number of profiles exceeds this limit.
	maxSavedProfiles = 20
)

// MemManager watches the memory usage of the process. The parse cache is the
// main consumer, so on an alarm it records profiles next to the log file and
// calls onAlarm, which purges the cache.
type MemManager struct {
	lg                *zap.Logger
	cancel            context.CancelFunc
	wg                waitgroup.WaitGroup
	cfgGetter         config.ConfigGetter
	onAlarm           func()
	savedProfileNames []string
	lastAlarmTime     time.Time
	checkInterval     time.Duration // used for test
	alarmMinInterval  time.Duration // used for test
	maxSavedProfiles  int           // used for test
	memoryLimit       uint64
}

func NewMemManager(lg *zap.Logger, cfgGetter config.ConfigGetter, onAlarm func()) *MemManager {
	return &MemManager{
		lg:               lg,
		cfgGetter:        cfgGetter,
		onAlarm:          onAlarm,
		checkInterval:    checkInterval,
		alarmMinInterval: alarmMinInterval,
		maxSavedProfiles: maxSavedProfiles,
	}
}

func (m *MemManager) Start(ctx context.Context) {
	// MemTotal and MemUsed respect cgroup limits.
	limit, err := memory.MemTotal()
	if err != nil || limit == 0 {
		m.lg.Error("get memory limit failed", zap.Uint64("limit", limit), zap.Error(err))
		return
	}
	m.memoryLimit = limit
	childCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.RunWithRecover(func() {
		m.alarmLoop(childCtx)
	}, nil, m.lg)
}

func (m *MemManager) alarmLoop(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()
	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkAndAlarm()
		}
	}
}

func (m *MemManager) checkAndAlarm() {
	if time.Since(m.lastAlarmTime) < m.alarmMinInterval {
		return
	}
	used, err := memory.MemUsed()
	if err != nil || used == 0 {
		m.lg.Error("get used memory failed", zap.Uint64("used", used), zap.Error(err))
		return
	}
	memoryUsage := float64(used) / float64(m.memoryLimit)
	if memoryUsage < alarmThreshold {
		return
	}

	m.lastAlarmTime = time.Now()
	metrics.ServerEventCounter.WithLabelValues(metrics.EventMemoryAlarm).Inc()
	m.lg.Warn("memory usage alarm", zap.Uint64("limit", m.memoryLimit), zap.Uint64("used", used), zap.Float64("usage", memoryUsage))

	// Record before purging so that the profiles show what filled the memory.
	// The filename is hot-reloadable.
	if logPath := m.cfgGetter.GetConfig().Log.LogFile.Filename; logPath != "" {
		recordDir := filepath.Dir(logPath)
		now := time.Now().Format(time.RFC3339)
		m.recordHeap(filepath.Join(recordDir, "heap_"+now))
		m.recordGoroutine(filepath.Join(recordDir, "goroutine_"+now))
		m.rmExpiredProfiles()
	}
	if m.onAlarm != nil {
		m.onAlarm()
	}
}

func (m *MemManager) recordHeap(fileName string) {
	f, err := os.Create(fileName)
	if err != nil {
		m.lg.Error("failed to create heap profile file", zap.Error(err))
		return
	}
	defer f.Close()
	if err = pprof.Lookup("heap").WriteTo(f, 0); err != nil {
		m.lg.Error("failed to write heap profile file", zap.Error(err))
	}
	m.savedProfileNames = append(m.savedProfileNames, fileName)
}

func (m *MemManager) recordGoroutine(fileName string) {
	buf := make([]byte, 1<<24)
	n := runtime.Stack(buf, true)
	if n >= len(buf) {
		m.lg.Warn("goroutine stack trace is too large, truncating", zap.Int("size", n))
	}
	if err := os.WriteFile(fileName, buf[:n], 0644); err != nil {
		m.lg.Error("failed to write goroutine profile file", zap.Error(err))
	}
	m.savedProfileNames = append(m.savedProfileNames, fileName)
}

func (m *MemManager) rmExpiredProfiles() {
	for len(m.savedProfileNames) > m.maxSavedProfiles {
		if err := os.Remove(m.savedProfileNames[0]); err != nil {
			m.lg.Warn("failed to remove expired profile file", zap.String("file", m.savedProfileNames[0]), zap.Error(err))
		}
		m.savedProfileNames = m.savedProfileNames[1:]
	}
}

func (m *MemManager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
