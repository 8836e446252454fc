// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint redacts literal values from parsed statements so that
// queries differing only in their parameters print the same text.
package fingerprint

import (
	"strings"

	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/pkg/dialect"
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
)

const stmtSeparator = "; "

var ErrFingerprint = errors.New("failed to fingerprint SQL")

// Fingerprint rewrites the statements in place and prints them, joined by "; ".
// Names stay bare unless they need the dialect's quotes. When maxListValues > 0, IN lists longer
// than that are truncated, so the result is no longer equivalent to the input.
func Fingerprint(d *dialect.Dialect, stmts []ast.StmtNode, maxListValues int) (string, error) {
	texts := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		text, err := fingerprintStmt(d, stmt, maxListValues)
		if err != nil {
			return "", err
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, stmtSeparator), nil
}

func fingerprintStmt(d *dialect.Dialect, stmt ast.StmtNode, maxListValues int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errors.Wrapf(ErrFingerprint, "%v", r)
		}
	}()
	node, _ := stmt.Accept(&redactor{maxListValues: maxListValues})
	return printStmt(d, node)
}

// Digest returns the hex SHA-256 digest of a fingerprint, a fixed-width key for grouping.
func Digest(fingerprint string) string {
	return parser.DigestNormalized(fingerprint).String()
}

// redactor replaces every non-NULL literal with a parameter marker.
type redactor struct {
	maxListValues int
}

func (r *redactor) Enter(n ast.Node) (ast.Node, bool) {
	switch v := n.(type) {
	case *ast.PatternInExpr:
		if r.maxListValues > 0 && len(v.List) > r.maxListValues {
			v.List = v.List[:r.maxListValues]
		}
	case *ast.AggregateFuncExpr:
		// COUNT(*) is parsed as COUNT(1). Both print as COUNT(*).
		if isCountStar(v) {
			return n, true
		}
	}
	return n, false
}

func (r *redactor) Leave(n ast.Node) (ast.Node, bool) {
	switch v := n.(type) {
	case *ast.AggregateFuncExpr:
		if isCountStar(v) {
			return &countStar{v}, true
		}
	case ast.ParamMarkerExpr:
		return n, true
	case ast.ValueExpr:
		// NULL stays: "IS NULL" is not a bound parameter.
		if v.GetValue() == nil {
			return n, true
		}
		return ast.NewParamMarkerExpr(0), true
	}
	return n, true
}

func isCountStar(agg *ast.AggregateFuncExpr) bool {
	if !strings.EqualFold(agg.F, ast.AggFuncCount) || agg.Distinct || len(agg.Args) != 1 {
		return false
	}
	v, ok := agg.Args[0].(ast.ValueExpr)
	if !ok {
		return false
	}
	one, ok := v.GetValue().(int64)
	return ok && one == 1
}
