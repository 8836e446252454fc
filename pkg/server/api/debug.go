// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/pkg/util/versioninfo"
)

type CacheInfo struct {
	Entries    int     `json:"entries"`
	Capacity   int     `json:"capacity"`
	TTLSeconds float64 `json:"ttl_seconds"`
	Shards     int     `json:"shards"`
}

func (h *Server) healthInfo() config.HealthInfo {
	return config.HealthInfo{
		Status:         "ok",
		Version:        versioninfo.SQLAstVersion,
		ConfigChecksum: h.mgr.CfgMgr.GetConfigChecksum(),
	}
}

func (h *Server) DebugHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.healthInfo())
}

func (h *Server) DebugCache(c *gin.Context) {
	stats := h.mgr.Service.CacheStats()
	c.JSON(http.StatusOK, CacheInfo{
		Entries:    stats.Entries,
		Capacity:   stats.Capacity,
		TTLSeconds: stats.TTL.Seconds(),
		Shards:     stats.Shards,
	})
}

func (h *Server) DebugPurgeCache(c *gin.Context) {
	h.mgr.Service.PurgeCache()
	c.JSON(http.StatusOK, "")
}

func (h *Server) registerDebug(group *gin.RouterGroup) {
	group.GET("/health", h.DebugHealth)
	group.GET("/cache", h.DebugCache)
	group.POST("/cache/purge", h.DebugPurgeCache)
	pprof.RouteRegister(group, "/pprof")
}
