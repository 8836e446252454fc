// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/pkg/dialect"
	"github.com/pingcap/sqlast/pkg/metrics"
	"github.com/pingcap/sqlast/pkg/service"
)

const defaultDialect = dialect.Generic

type ParseRequest struct {
	SQL     string `json:"sql" binding:"required"`
	Dialect string `json:"dialect"`
	NoCache bool   `json:"no_cache"`
}

type ParseResponse struct {
	AST       json.RawMessage `json:"ast"`
	Cached    bool            `json:"cached"`
	ElapsedMs float64         `json:"elapsed_ms"`
}

type FingerprintRequest struct {
	SQL     string `json:"sql" binding:"required"`
	Dialect string `json:"dialect"`
	// MaxInValues falls back to the server config when it is absent.
	MaxInValues *int `json:"max_in_values"`
}

type FingerprintResponse struct {
	Fingerprint string  `json:"fingerprint"`
	Digest      string  `json:"digest"`
	ElapsedMs   float64 `json:"elapsed_ms"`
}

type ErrorResponse struct {
	Error     string  `json:"error"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

type DialectsResponse struct {
	Dialects []string `json:"dialects"`
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// errorStatus maps service errors to HTTP status codes. Everything the
// caller can fix is a 400.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, dialect.ErrUnsupportedDialect),
		errors.Is(err, dialect.ErrParse),
		errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, metrics.ResultBadInput
	default:
		return http.StatusInternalServerError, metrics.ResultError
	}
}

func (h *Server) failRequest(c *gin.Context, op string, start time.Time, status int, result string, err error) {
	metrics.APIRequestCounter.WithLabelValues(op, result).Inc()
	metrics.APIDurationHistogram.WithLabelValues(op).Observe(time.Since(start).Seconds())
	c.Errors = append(c.Errors, &gin.Error{
		Err:  err,
		Type: gin.ErrorTypePrivate,
	})
	c.JSON(status, ErrorResponse{Error: err.Error(), ElapsedMs: elapsedMs(start)})
}

func (h *Server) succeedRequest(op string, start time.Time) {
	metrics.APIRequestCounter.WithLabelValues(op, metrics.ResultOK).Inc()
	metrics.APIDurationHistogram.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (h *Server) HandleParse(c *gin.Context) {
	start := time.Now()
	req := ParseRequest{Dialect: defaultDialect}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.failRequest(c, metrics.OpParse, start, http.StatusBadRequest, metrics.ResultBadInput, errors.Wrap(service.ErrInvalidRequest, err))
		return
	}
	res, err := h.mgr.Service.Parse(c.Request.Context(), service.ParseRequest{
		SQL:     req.SQL,
		Dialect: req.Dialect,
		NoCache: req.NoCache,
	})
	if err != nil {
		status, result := errorStatus(err)
		h.failRequest(c, metrics.OpParse, start, status, result, err)
		return
	}
	h.succeedRequest(metrics.OpParse, start)
	c.JSON(http.StatusOK, ParseResponse{
		AST:       res.AST,
		Cached:    res.Cached,
		ElapsedMs: elapsedMs(start),
	})
}

func (h *Server) HandleFingerprint(c *gin.Context) {
	start := time.Now()
	req := FingerprintRequest{Dialect: defaultDialect}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.failRequest(c, metrics.OpFingerprint, start, http.StatusBadRequest, metrics.ResultBadInput, errors.Wrap(service.ErrInvalidRequest, err))
		return
	}
	res, err := h.mgr.Service.Fingerprint(c.Request.Context(), service.FingerprintRequest{
		SQL:         req.SQL,
		Dialect:     req.Dialect,
		MaxInValues: req.MaxInValues,
	})
	if err != nil {
		status, result := errorStatus(err)
		h.failRequest(c, metrics.OpFingerprint, start, status, result, err)
		return
	}
	h.succeedRequest(metrics.OpFingerprint, start)
	c.JSON(http.StatusOK, FingerprintResponse{
		Fingerprint: res.Fingerprint,
		Digest:      res.Digest,
		ElapsedMs:   elapsedMs(start),
	})
}

func (h *Server) HandleDialects(c *gin.Context) {
	c.JSON(http.StatusOK, DialectsResponse{Dialects: h.mgr.Service.Dialects()})
}

// registerRoot serves the unprefixed paths that existing clients call.
func (h *Server) registerRoot(group *gin.RouterGroup) {
	group.POST("/parse", h.HandleParse)
	group.POST("/fingerprint", h.HandleFingerprint)
	group.GET("/health", h.DebugHealth)
}

func (h *Server) registerSQL(group *gin.RouterGroup) {
	group.POST("/parse", h.HandleParse)
	group.POST("/fingerprint", h.HandleFingerprint)
	group.GET("/dialects", h.HandleDialects)
}
