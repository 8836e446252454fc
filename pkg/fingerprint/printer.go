// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"strings"
	"sync"

	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/pkg/dialect"
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
)

// reservedWords are the keywords that cannot be used as bare names.
var reservedWords = sync.OnceValue(func() map[string]struct{} {
	words := make(map[string]struct{}, len(parser.Keywords))
	for _, kw := range parser.Keywords {
		if kw.Reserved {
			words[kw.Word] = struct{}{}
		}
	}
	return words
})

// printStmt restores a redacted statement in fingerprint form: names are bare
// unless they need quoting, and list items and assignments are spaced the
// way people write them.
func printStmt(d *dialect.Dialect, node ast.Node) (string, error) {
	// Names are always backquoted first so that tidy can tell them apart
	// from the rest of the text. tidy then re-quotes in the dialect's style.
	flags := d.RestoreFlags&^format.RestoreNameDoubleQuotes | format.RestoreNameBackQuotes
	var sb strings.Builder
	if err := node.Restore(format.NewRestoreCtx(flags, &sb)); err != nil {
		return "", errors.Wrap(dialect.ErrRestore, err)
	}
	quote := byte('`')
	if d.RestoreFlags.HasNameDoubleQuotesFlag() {
		quote = '"'
	}
	return tidy(sb.String(), quote), nil
}

// tidy rewrites printer output. Single-quoted strings are copied untouched.
func tidy(s string, quote byte) string {
	var sb strings.Builder
	sb.Grow(len(s) + len(s)/8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\'':
			end := quotedEnd(s, i)
			sb.WriteString(s[i:end])
			i = end - 1
		case '`':
			end := quotedEnd(s, i)
			if end-i < 2 || s[end-1] != '`' {
				sb.WriteString(s[i:end])
			} else {
				writeName(&sb, strings.ReplaceAll(s[i+1:end-1], "``", "`"), quote)
			}
			i = end - 1
		case ',':
			sb.WriteByte(',')
			if i+1 < len(s) && s[i+1] != ' ' {
				sb.WriteByte(' ')
			}
		case '=':
			var prev, next byte
			if out := sb.String(); len(out) > 0 {
				prev = out[len(out)-1]
			}
			if i+1 < len(s) {
				next = s[i+1]
			}
			// <=, >=, !=, :=, <=> and == are left alone.
			if strings.IndexByte("<>!:=", prev) >= 0 || next == '>' || next == '=' {
				sb.WriteByte('=')
				continue
			}
			if prev != ' ' && prev != 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte('=')
			if next != ' ' && next != 0 {
				sb.WriteByte(' ')
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// quotedEnd returns the index just past the quoted run starting at s[start].
// A doubled quote inside the run is an escaped quote.
func quotedEnd(s string, start int) int {
	q := s[start]
	for j := start + 1; j < len(s); j++ {
		if s[j] != q {
			continue
		}
		if j+1 < len(s) && s[j+1] == q {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}

func writeName(sb *strings.Builder, name string, quote byte) {
	if isBareName(name) {
		sb.WriteString(name)
		return
	}
	q := string(quote)
	sb.WriteByte(quote)
	sb.WriteString(strings.ReplaceAll(name, q, q+q))
	sb.WriteByte(quote)
}

func isBareName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c == '$' || c >= '0' && c <= '9'):
		default:
			return false
		}
	}
	_, reserved := reservedWords()[strings.ToUpper(name)]
	return !reserved
}

// countStar prints COUNT(*), which the parser stores as COUNT(1).
type countStar struct {
	*ast.AggregateFuncExpr
}

func (c *countStar) Restore(ctx *format.RestoreCtx) error {
	ctx.WriteKeyWord(c.F)
	ctx.WritePlain("(*)")
	return nil
}
