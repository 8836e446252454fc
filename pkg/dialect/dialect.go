// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"strings"
	"sync"

	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	"github.com/pingcap/tidb/pkg/parser/mysql"
	// registers the value and parameter marker expressions used by the parser
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

const baseRestoreFlags = format.RestoreKeyWordUppercase |
	format.RestoreStringSingleQuotes |
	format.RestoreStringWithoutDefaultCharset |
	format.RestoreSpacesAroundBinaryOperation

// Dialect is an immutable parser configuration. It is shared by pointer:
// all aliases of a dialect resolve to the same *Dialect.
type Dialect struct {
	Name         string
	SQLMode      mysql.SQLMode
	RestoreFlags format.RestoreFlags

	// The parser is not goroutine-safe, so every goroutine borrows its own.
	parsers sync.Pool
}

func newDialect(name string, mode mysql.SQLMode, quote format.RestoreFlags) *Dialect {
	d := &Dialect{
		Name:         name,
		SQLMode:      mode,
		RestoreFlags: baseRestoreFlags | quote,
	}
	d.parsers.New = func() any {
		p := parser.New()
		p.SetSQLMode(mode)
		p.EnableWindowFunc(true)
		return p
	}
	return d
}

// Parse parses one or more statements. Errors wrap ErrParse.
func (d *Dialect) Parse(sql string) (stmts []ast.StmtNode, err error) {
	p := d.parsers.Get().(*parser.Parser)
	defer func() {
		if r := recover(); r != nil {
			// A parser that panicked may hold broken state, so it is not returned to the pool.
			stmts = nil
			err = errors.Wrapf(ErrParse, "%v", r)
			return
		}
		d.parsers.Put(p)
	}()
	stmts, _, err = p.ParseSQL(sql)
	if err != nil {
		return nil, errors.Wrap(ErrParse, err)
	}
	return stmts, nil
}

// Restore prints a node back to SQL text.
func (d *Dialect) Restore(node ast.Node) (string, error) {
	var sb strings.Builder
	if err := node.Restore(format.NewRestoreCtx(d.RestoreFlags, &sb)); err != nil {
		return "", errors.Wrap(ErrRestore, err)
	}
	return sb.String(), nil
}

func (d *Dialect) String() string {
	return d.Name
}
