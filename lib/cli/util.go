// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pingcap/sqlast/lib/util/errors"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var ErrNoSQL = errors.New("no SQL given")

type Context struct {
	Logger *zap.Logger
	Client *http.Client
	CUrls  []string
	Indent bool
}

// doRequest tries the addresses in random order until one of them answers.
// A 400 is the caller's fault, so it is returned without trying others.
func doRequest(ctx context.Context, bctx *Context, method string, url string, body []byte) (string, error) {
	var sep string
	if len(url) > 0 && url[0] != '/' {
		sep = "/"
	}

	var rete string
	for _, i := range rand.Perm(len(bctx.CUrls)) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("http://%s%s%s", bctx.CUrls[i], sep, url), rd)
		if err != nil {
			return "", err
		}
		if body != nil && json.Valid(body) {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := bctx.Client.Do(req)
		if err != nil {
			bctx.Logger.Warn("request failed", zap.String("addr", bctx.CUrls[i]), zap.Error(err))
			rete = err.Error()
			continue
		}
		resb, _ := io.ReadAll(res.Body)
		_ = res.Body.Close()

		switch res.StatusCode {
		case http.StatusOK:
			return bctx.format(resb), nil
		case http.StatusBadRequest:
			return fmt.Sprintf("bad request: %s", bctx.format(resb)), nil
		case http.StatusInternalServerError:
			rete = fmt.Sprintf("internal error: %s", string(resb))
			continue
		default:
			rete = fmt.Sprintf("%s: %s", res.Status, string(resb))
			continue
		}
	}

	return rete, nil
}

func (bctx *Context) format(resp []byte) string {
	if !bctx.Indent || !json.Valid(resp) {
		return string(resp)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, resp, "", "  "); err != nil {
		return string(resp)
	}
	return buf.String()
}

// readSQL takes the SQL from the arguments, or from stdin when it is piped.
func readSQL(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", ErrNoSQL
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return "", ErrNoSQL
	}
	return string(b), nil
}
