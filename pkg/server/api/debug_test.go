// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"testing"

	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/pkg/util/versioninfo"
	"github.com/stretchr/testify/require"
)

func TestDebugHealth(t *testing.T) {
	srv, doHTTP := createServer(t)
	doHTTP(t, http.MethodGet, "/api/debug/health", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		info := decodeBody[config.HealthInfo](t, r)
		require.Equal(t, "ok", info.Status)
		require.Equal(t, versioninfo.SQLAstVersion, info.Version)
		require.Equal(t, srv.mgr.CfgMgr.GetConfigChecksum(), info.ConfigChecksum)
	})
}

func TestDebugCache(t *testing.T) {
	_, doHTTP := createServer(t)
	doHTTP(t, http.MethodPost, "/api/parse", httpOpts{
		reader: jsonBody(t, map[string]any{"sql": "SELECT 1"}),
	}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
	})
	doHTTP(t, http.MethodGet, "/api/debug/cache", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		info := decodeBody[CacheInfo](t, r)
		require.Equal(t, 1, info.Entries)
		require.Equal(t, config.DefaultCacheMaxCapacity, info.Capacity)
		require.Equal(t, float64(config.DefaultCacheTTLSeconds), info.TTLSeconds)
		require.Equal(t, config.DefaultCacheShards, info.Shards)
	})
	doHTTP(t, http.MethodPost, "/api/debug/cache/purge", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
	})
	doHTTP(t, http.MethodGet, "/api/debug/cache", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, 0, decodeBody[CacheInfo](t, r).Entries)
	})
}

func TestPprof(t *testing.T) {
	_, doHTTP := createServer(t)
	doHTTP(t, http.MethodGet, "/api/debug/pprof/", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
	})
}
