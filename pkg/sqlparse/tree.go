// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlparse

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/pkg/dialect"
	"github.com/pingcap/tidb/pkg/parser/ast"
)

var ErrSerialize = errors.New("failed to serialize AST")

// Node is the transport form of one syntax tree node.
type Node struct {
	Type     string            `json:"type"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// MarshalStatements encodes the statements as a JSON array of trees.
// Errors wrap ErrSerialize.
func MarshalStatements(d *dialect.Dialect, stmts []ast.StmtNode) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = errors.Wrapf(ErrSerialize, "%v", r)
		}
	}()
	trees := make([]*Node, 0, len(stmts))
	for _, stmt := range stmts {
		tree, err := BuildTree(d, stmt)
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}
	data, err = json.Marshal(trees)
	if err != nil {
		return nil, errors.Wrap(ErrSerialize, err)
	}
	return data, nil
}

// BuildTree converts one statement. Statements and leaf nodes carry their SQL text.
func BuildTree(d *dialect.Dialect, stmt ast.StmtNode) (*Node, error) {
	b := &treeBuilder{d: d}
	stmt.Accept(b)
	if b.err != nil {
		return nil, b.err
	}
	if b.root == nil {
		return nil, errors.Wrapf(ErrSerialize, "statement %T produced no tree", stmt)
	}
	return b.root, nil
}

type treeBuilder struct {
	d     *dialect.Dialect
	stack []*Node
	root  *Node
	err   error
}

func (b *treeBuilder) Enter(n ast.Node) (ast.Node, bool) {
	node := &Node{
		Type:  typeName(n),
		Attrs: attrsOf(n),
	}
	if len(b.stack) > 0 {
		parent := b.stack[len(b.stack)-1]
		parent.Children = append(parent.Children, node)
	} else if b.root == nil {
		b.root = node
	}
	b.stack = append(b.stack, node)
	return n, false
}

func (b *treeBuilder) Leave(n ast.Node) (ast.Node, bool) {
	if len(b.stack) == 0 {
		b.err = errors.Wrapf(ErrSerialize, "unbalanced visit at %T", n)
		return n, false
	}
	node := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	_, isStmt := n.(ast.StmtNode)
	if isStmt || len(node.Children) == 0 {
		// Some nodes only print inside their parents. Their text is left empty.
		if text, err := b.restore(n); err == nil {
			node.Text = text
		} else if isStmt && len(b.stack) == 0 {
			b.err = errors.Wrap(ErrSerialize, err)
			return n, false
		}
	}
	return n, true
}

func (b *treeBuilder) restore(n ast.Node) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("restore %T: %v", n, r)
		}
	}()
	return b.d.Restore(n)
}

func typeName(n ast.Node) string {
	t := reflect.TypeOf(n)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func attrsOf(n ast.Node) map[string]string {
	switch x := n.(type) {
	case *ast.TableName:
		return nonEmpty("schema", x.Schema.O, "name", x.Name.O)
	case *ast.ColumnName:
		return nonEmpty("schema", x.Schema.O, "table", x.Table.O, "name", x.Name.O)
	case *ast.TableSource:
		return nonEmpty("alias", x.AsName.O)
	case *ast.SelectField:
		attrs := nonEmpty("alias", x.AsName.O)
		if x.WildCard != nil {
			attrs = withAttr(attrs, "wildcard", "true")
		}
		return attrs
	case *ast.BinaryOperationExpr:
		return nonEmpty("op", x.Op.String())
	case *ast.UnaryOperationExpr:
		return nonEmpty("op", x.Op.String())
	case *ast.FuncCallExpr:
		return nonEmpty("name", x.FnName.L)
	case *ast.AggregateFuncExpr:
		attrs := nonEmpty("name", strings.ToLower(x.F))
		if x.Distinct {
			attrs = withAttr(attrs, "distinct", "true")
		}
		return attrs
	case *ast.PatternInExpr:
		return notAttr(x.Not)
	case *ast.IsNullExpr:
		return notAttr(x.Not)
	case *ast.BetweenExpr:
		return notAttr(x.Not)
	case *ast.ExistsSubqueryExpr:
		return notAttr(x.Not)
	case *ast.Join:
		return nonEmpty("kind", joinKind(x))
	case *ast.ByItem:
		if x.Desc {
			return map[string]string{"order": "desc"}
		}
		return nil
	case ast.ParamMarkerExpr:
		return map[string]string{"kind": "param"}
	case ast.ValueExpr:
		return map[string]string{"kind": valueKind(x.GetValue())}
	}
	return nil
}

func valueKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case int64, uint64:
		return "int"
	case float32, float64:
		return "float"
	case string:
		return "string"
	case []byte:
		return "bytes"
	}
	name := fmt.Sprintf("%T", v)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)
	if strings.Contains(name, "decimal") {
		return "decimal"
	}
	return name
}

func joinKind(j *ast.Join) string {
	if j.Right == nil {
		return ""
	}
	switch j.Tp {
	case ast.LeftJoin:
		return "left"
	case ast.RightJoin:
		return "right"
	case ast.CrossJoin:
		if j.On == nil && len(j.Using) == 0 {
			return "cross"
		}
		return "inner"
	}
	return ""
}

func notAttr(not bool) map[string]string {
	if not {
		return map[string]string{"not": "true"}
	}
	return nil
}

func nonEmpty(kv ...string) map[string]string {
	var attrs map[string]string
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			attrs = withAttr(attrs, kv[i], kv[i+1])
		}
	}
	return attrs
}

func withAttr(attrs map[string]string, k, v string) map[string]string {
	if attrs == nil {
		attrs = make(map[string]string, 2)
	}
	attrs[k] = v
	return attrs
}
