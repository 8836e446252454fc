// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/pkg/dialect"
	"github.com/pingcap/sqlast/pkg/metrics"
	"github.com/stretchr/testify/require"
)

func jsonBody(t *testing.T, v any) io.Reader {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return strings.NewReader(string(data))
}

func decodeBody[T any](t *testing.T, r *http.Response) T {
	var v T
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestParse(t *testing.T) {
	_, doHTTP := createServer(t)

	req := map[string]any{"sql": "SELECT id, name FROM users WHERE age > 18", "dialect": "mysql"}
	doHTTP(t, http.MethodPost, "/api/parse", httpOpts{reader: jsonBody(t, req)}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		resp := decodeBody[ParseResponse](t, r)
		require.False(t, resp.Cached)
		require.GreaterOrEqual(t, resp.ElapsedMs, 0.0)
		var trees []map[string]any
		require.NoError(t, json.Unmarshal(resp.AST, &trees))
		require.Len(t, trees, 1)
		require.Equal(t, "SelectStmt", trees[0]["type"])
	})
	doHTTP(t, http.MethodPost, "/api/parse", httpOpts{reader: jsonBody(t, req)}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		require.True(t, decodeBody[ParseResponse](t, r).Cached)
	})

	// no_cache bypasses the cache
	req["no_cache"] = true
	doHTTP(t, http.MethodPost, "/api/parse", httpOpts{reader: jsonBody(t, req)}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		require.False(t, decodeBody[ParseResponse](t, r).Cached)
	})

	// dialect defaults to generic
	doHTTP(t, http.MethodPost, "/api/parse", httpOpts{reader: jsonBody(t, map[string]any{"sql": "SELECT 1"})}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
	})
}

func TestParseErrors(t *testing.T) {
	_, doHTTP := createServer(t)
	counter := metrics.APIRequestCounter.WithLabelValues(metrics.OpParse, metrics.ResultBadInput)
	before, err := metrics.ReadCounter(counter)
	require.NoError(t, err)

	tests := []struct {
		body   string
		errMsg string
	}{
		{
			body:   `{"sql": "SELEC * FROM t", "dialect": "mysql"}`,
			errMsg: "failed to parse SQL",
		},
		{
			body:   `{"sql": "SELECT 1", "dialect": "oracle"}`,
			errMsg: "Supported dialects:",
		},
		{
			body:   `{"dialect": "mysql"}`,
			errMsg: "invalid request",
		},
		{
			body:   `not json`,
			errMsg: "invalid request",
		},
	}
	for i, test := range tests {
		doHTTP(t, http.MethodPost, "/api/parse", httpOpts{reader: strings.NewReader(test.body)}, func(t *testing.T, r *http.Response) {
			require.Equal(t, http.StatusBadRequest, r.StatusCode, "case %d", i)
			resp := decodeBody[ErrorResponse](t, r)
			require.Contains(t, resp.Error, test.errMsg, "case %d", i)
		})
	}

	after, err := metrics.ReadCounter(counter)
	require.NoError(t, err)
	require.Equal(t, before+len(tests), after)
}

func TestFingerprint(t *testing.T) {
	_, doHTTP := createServer(t)

	var first FingerprintResponse
	doHTTP(t, http.MethodPost, "/api/fingerprint", httpOpts{
		reader: jsonBody(t, map[string]any{"sql": "SELECT * FROM users WHERE id = 42", "dialect": "mysql"}),
	}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		first = decodeBody[FingerprintResponse](t, r)
		require.Contains(t, first.Fingerprint, "?")
		require.NotContains(t, first.Fingerprint, "42")
		require.Len(t, first.Digest, 64)
	})
	doHTTP(t, http.MethodPost, "/api/fingerprint", httpOpts{
		reader: jsonBody(t, map[string]any{"sql": "select *  from users where id = 7", "dialect": "mysql"}),
	}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		resp := decodeBody[FingerprintResponse](t, r)
		require.Equal(t, first.Fingerprint, resp.Fingerprint)
		require.Equal(t, first.Digest, resp.Digest)
	})

	doHTTP(t, http.MethodPost, "/api/fingerprint", httpOpts{
		reader: jsonBody(t, map[string]any{"sql": "SELECT 1 FROM t WHERE a IN (1, 2, 3)", "max_in_values": -1}),
	}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusBadRequest, r.StatusCode)
	})
	doHTTP(t, http.MethodPost, "/api/fingerprint", httpOpts{
		reader: jsonBody(t, map[string]any{"sql": "SELECT FROM WHERE"}),
	}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusBadRequest, r.StatusCode)
		require.Contains(t, decodeBody[ErrorResponse](t, r).Error, "failed to parse SQL")
	})
}

func TestDialects(t *testing.T) {
	_, doHTTP := createServer(t)
	doHTTP(t, http.MethodGet, "/api/dialects", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		resp := decodeBody[DialectsResponse](t, r)
		require.Contains(t, resp.Dialects, dialect.MySQL)
		require.Contains(t, resp.Dialects, dialect.Generic)
		require.IsIncreasing(t, resp.Dialects)
	})
}

func TestRootPaths(t *testing.T) {
	_, doHTTP := createServer(t)

	doHTTP(t, http.MethodPost, "/parse", httpOpts{
		reader: jsonBody(t, map[string]any{"sql": "SELECT * FROM users WHERE id = 123", "dialect": "mysql"}),
	}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		var trees []map[string]any
		require.NoError(t, json.Unmarshal(decodeBody[ParseResponse](t, r).AST, &trees))
		require.Equal(t, "SelectStmt", trees[0]["type"])
	})
	doHTTP(t, http.MethodPost, "/fingerprint", httpOpts{
		reader: jsonBody(t, map[string]any{"sql": "SELECT * FROM users WHERE id = 123 AND age IN (25, 30, 35, 40, 45)", "dialect": "mysql", "max_in_values": 3}),
	}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		require.Equal(t, "SELECT * FROM users WHERE id = ? AND age IN (?, ?, ?)", decodeBody[FingerprintResponse](t, r).Fingerprint)
	})
	doHTTP(t, http.MethodGet, "/health", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		require.Equal(t, "ok", decodeBody[config.HealthInfo](t, r).Status)
	})
}
