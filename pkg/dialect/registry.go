// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"slices"
	"strings"
	"sync"

	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/tidb/pkg/parser/format"
	"github.com/pingcap/tidb/pkg/parser/mysql"
	"github.com/samber/lo"
)

const (
	Generic    = "generic"
	MySQL      = "mysql"
	PostgreSQL = "postgresql"
	SQLite     = "sqlite"
	Hive       = "hive"
	Snowflake  = "snowflake"
	MSSQL      = "mssql"
	ANSI       = "ansi"
)

// Registry maps lower-case dialect names to dialects. It is never mutated
// after NewRegistry returns, so reads need no locking.
type Registry struct {
	dialects map[string]*Dialect
	names    []string
}

var defaultRegistry = sync.OnceValue(NewRegistry)

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry()
}

func NewRegistry() *Registry {
	// Identifier quoting follows what each database accepts. Double quotes
	// need ANSI_QUOTES so that the parser reads "x" as a name, not a string.
	postgres := newDialect(PostgreSQL, mysql.ModeANSIQuotes|mysql.ModePipesAsConcat|mysql.ModeNoBackslashEscapes, format.RestoreNameDoubleQuotes)
	mssql := newDialect(MSSQL, mysql.ModeANSIQuotes, format.RestoreNameDoubleQuotes)
	// The ANSI bit alone does not turn on ANSI_QUOTES, so the combination
	// MySQL documents for sql_mode=ANSI is spelled out.
	ansi := newDialect(ANSI, mysql.ModeANSI|mysql.ModeANSIQuotes|mysql.ModePipesAsConcat|mysql.ModeRealAsFloat|mysql.ModeIgnoreSpace, format.RestoreNameDoubleQuotes)
	dialects := map[string]*Dialect{
		Generic:     newDialect(Generic, mysql.ModeNone, format.RestoreNameBackQuotes),
		MySQL:       newDialect(MySQL, mysql.ModeNone, format.RestoreNameBackQuotes),
		PostgreSQL:  postgres,
		"postgres":  postgres,
		SQLite:      newDialect(SQLite, mysql.ModeANSIQuotes|mysql.ModePipesAsConcat, format.RestoreNameDoubleQuotes),
		Hive:        newDialect(Hive, mysql.ModeNone, format.RestoreNameBackQuotes),
		Snowflake:   newDialect(Snowflake, mysql.ModeANSIQuotes|mysql.ModePipesAsConcat, format.RestoreNameDoubleQuotes),
		MSSQL:       mssql,
		"sqlserver": mssql,
		ANSI:        ansi,
	}
	names := lo.Keys(dialects)
	slices.Sort(names)
	return &Registry{
		dialects: dialects,
		names:    names,
	}
}

// Resolve looks a dialect up by name, ignoring case.
func (r *Registry) Resolve(name string) (*Dialect, error) {
	if d, ok := r.dialects[strings.ToLower(name)]; ok {
		return d, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedDialect, "%s. Supported dialects: %s", name, strings.Join(r.names, ", "))
}

// Names returns every accepted name, aliases included, in sorted order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Dialects returns each distinct dialect once, ordered by canonical name.
func (r *Registry) Dialects() []*Dialect {
	ds := lo.Uniq(lo.Values(r.dialects))
	slices.SortFunc(ds, func(a, b *Dialect) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ds
}
