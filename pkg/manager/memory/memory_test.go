// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/logger"
	"github.com/pingcap/tidb/pkg/util/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type mockCfgGetter struct {
	cfg *config.Config
}

func (c *mockCfgGetter) GetConfig() *config.Config {
	return c.cfg
}

func mockMemory(t *testing.T, used uint64) {
	origUsed, origTotal := memory.MemUsed, memory.MemTotal
	memory.MemUsed = func() (uint64, error) {
		return used, nil
	}
	memory.MemTotal = func() (uint64, error) {
		return 10 * (1 << 30), nil
	}
	t.Cleanup(func() {
		memory.MemUsed, memory.MemTotal = origUsed, origTotal
	})
}

func TestAlarmPurgesAndRecords(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Log.LogFile.Filename = filepath.Join(dir, "sqlast.log")
	mockMemory(t, 9*(1<<30))
	lg, _ := logger.CreateLoggerForTest(t)
	alarms := atomic.NewInt32(0)
	m := NewMemManager(lg, &mockCfgGetter{cfg: cfg}, func() {
		alarms.Inc()
	})
	// The timestamps in file names are in seconds, so recording too frequently
	// overwrites the previous files.
	m.checkInterval = 100 * time.Millisecond
	m.alarmMinInterval = 1200 * time.Millisecond
	m.maxSavedProfiles = 2
	m.Start(context.Background())

	require.Eventually(t, func() bool {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		prefixes := []string{"heap_", "goroutine_"}
		for _, entry := range entries {
			for i, prefix := range prefixes {
				if strings.HasPrefix(entry.Name(), prefix) {
					info, err := os.Stat(filepath.Join(dir, entry.Name()))
					require.NoError(t, err)
					if info.Size() == 0 {
						return false
					}
					prefixes = append(prefixes[:i], prefixes[i+1:]...)
					break
				}
			}
		}
		return len(prefixes) == 0 && alarms.Load() > 0
	}, 3*time.Second, 100*time.Millisecond)

	// The expired profiles are removed.
	time.Sleep(2 * time.Second)
	m.Close()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, m.maxSavedProfiles)
	require.GreaterOrEqual(t, alarms.Load(), int32(2))
}

func TestNoAlarmUnderThreshold(t *testing.T) {
	mockMemory(t, 1<<30)
	lg, _ := logger.CreateLoggerForTest(t)
	alarms := atomic.NewInt32(0)
	m := NewMemManager(lg, &mockCfgGetter{cfg: &config.Config{}}, func() {
		alarms.Inc()
	})
	m.checkInterval = 10 * time.Millisecond
	m.Start(context.Background())
	time.Sleep(200 * time.Millisecond)
	m.Close()
	require.Zero(t, alarms.Load())
}

func TestAlarmWithoutLogFile(t *testing.T) {
	mockMemory(t, 9*(1<<30))
	lg, _ := logger.CreateLoggerForTest(t)
	alarms := atomic.NewInt32(0)
	m := NewMemManager(lg, &mockCfgGetter{cfg: &config.Config{}}, func() {
		alarms.Inc()
	})
	m.checkInterval = 10 * time.Millisecond
	m.Start(context.Background())
	require.Eventually(t, func() bool {
		return alarms.Load() == 1
	}, 3*time.Second, 10*time.Millisecond)
	m.Close()
	require.Empty(t, m.savedProfileNames)
}
