// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

type mockServer struct {
	sync.Mutex
	*httptest.Server
	requests []recordedRequest
	version  string
}

func newMockServer(t *testing.T) *mockServer {
	ms := &mockServer{version: "v1.2.0"}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ms.Lock()
		ms.requests = append(ms.requests, recordedRequest{method: r.Method, path: r.URL.RequestURI(), body: string(body)})
		version := ms.version
		ms.Unlock()
		switch r.URL.Path {
		case healthPrefix:
			_, _ = w.Write([]byte(`{"status":"ok","version":"` + version + `","config_checksum":1}`))
		case parsePrefix:
			if strings.Contains(string(body), "SELEC ") {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"failed to parse SQL: syntax error","elapsed_ms":0.1}`))
				return
			}
			_, _ = w.Write([]byte(`{"ast":[],"cached":false,"elapsed_ms":0.1}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(ms.Close)
	return ms
}

func (ms *mockServer) lastRequest() recordedRequest {
	ms.Lock()
	defer ms.Unlock()
	return ms.requests[len(ms.requests)-1]
}

func runCmd(t *testing.T, ms *mockServer, in string, args ...string) (string, error) {
	rootCmd := GetRootCmd()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(in))
	addr := strings.TrimPrefix(ms.URL, "http://")
	rootCmd.SetArgs(append([]string{"--curls", addr, "--indent=false"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParse(t *testing.T) {
	ms := newMockServer(t)

	out, err := runCmd(t, ms, "", "parse", "--dialect", "mysql", "SELECT", "1")
	require.NoError(t, err)
	require.Contains(t, out, `"cached":false`)
	req := ms.lastRequest()
	require.Equal(t, http.MethodPost, req.method)
	require.Equal(t, parsePrefix, req.path)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.body), &body))
	require.Equal(t, "SELECT 1", body["sql"])
	require.Equal(t, "mysql", body["dialect"])
	require.Equal(t, false, body["no_cache"])

	// stdin
	_, err = runCmd(t, ms, "SELECT a FROM t\n", "parse", "--no-cache")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(ms.lastRequest().body), &body))
	require.Equal(t, "SELECT a FROM t\n", body["sql"])
	require.Equal(t, true, body["no_cache"])

	_, err = runCmd(t, ms, "  ", "parse")
	require.ErrorIs(t, err, ErrNoSQL)

	out, err = runCmd(t, ms, "", "parse", "SELEC 1")
	require.NoError(t, err)
	require.Contains(t, out, "bad request: ")
}

func TestFingerprint(t *testing.T) {
	ms := newMockServer(t)

	_, err := runCmd(t, ms, "", "fingerprint", "SELECT 1")
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(ms.lastRequest().body), &body))
	require.NotContains(t, body, "max_in_values")

	_, err = runCmd(t, ms, "", "fingerprint", "--max-in-values", "0", "SELECT 1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(ms.lastRequest().body), &body))
	require.EqualValues(t, 0, body["max_in_values"])
}

func TestSimpleCommands(t *testing.T) {
	ms := newMockServer(t)
	tests := []struct {
		args   []string
		method string
		path   string
	}{
		{[]string{"dialects"}, http.MethodGet, dialectsPrefix},
		{[]string{"cache", "get"}, http.MethodGet, cachePrefix},
		{[]string{"cache", "purge"}, http.MethodPost, cachePrefix + "/purge"},
		{[]string{"config", "get"}, http.MethodGet, configPrefix},
		{[]string{"config", "get", "--format", "json"}, http.MethodGet, configPrefix + "?format=json"},
		{[]string{"health"}, http.MethodGet, healthPrefix},
	}
	for i, test := range tests {
		_, err := runCmd(t, ms, "", test.args...)
		require.NoError(t, err, "case %d", i)
		req := ms.lastRequest()
		require.Equal(t, test.method, req.method, "case %d", i)
		require.Equal(t, test.path, req.path, "case %d", i)
	}

	_, err := runCmd(t, ms, "[fingerprint]\nmax-in-values = 3\n", "config", "set")
	require.NoError(t, err)
	req := ms.lastRequest()
	require.Equal(t, http.MethodPut, req.method)
	require.Equal(t, "[fingerprint]\nmax-in-values = 3\n", req.body)
}

func TestHealthMinVersion(t *testing.T) {
	ms := newMockServer(t)
	_, err := runCmd(t, ms, "", "health", "--min-version", "v1.1.0")
	require.NoError(t, err)
	_, err = runCmd(t, ms, "", "health", "--min-version", "v1.2.0")
	require.NoError(t, err)
	_, err = runCmd(t, ms, "", "health", "--min-version", "v2.0.0")
	require.ErrorIs(t, err, ErrVersionTooOld)
}

func TestFailover(t *testing.T) {
	ms := newMockServer(t)
	rootCmd := GetRootCmd()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	addr := strings.TrimPrefix(ms.URL, "http://")
	// The first address refuses connections.
	rootCmd.SetArgs([]string{"--curls", "127.0.0.1:1", "--curls", addr, "health"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	require.Contains(t, out.String(), `"status": "ok"`)
}
