// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors_test

import (
	gerr "errors"
	"fmt"
	"testing"

	serr "github.com/pingcap/sqlast/lib/util/errors"
	"github.com/stretchr/testify/require"
)

func TestStacktrace(t *testing.T) {
	e := serr.WithStack(serr.New("tt"))
	require.Equal(t, "tt", e.Error())
	require.Contains(t, fmt.Sprintf("%+v", e), t.Name(), "stacktrace must contain test name")
	require.Contains(t, fmt.Sprintf("%+s", e), t.Name(), "stacktrace must contain test name")
	require.Nil(t, serr.WithStack(nil), "wrap nil got nil")

	e1 := gerr.New("t")
	require.ErrorIs(t, serr.WithStack(e1), e1, "stacktrace does not affect Is")
}

func TestWrap(t *testing.T) {
	e1 := serr.New("tt")
	e2 := serr.New("dd")
	e := serr.Wrap(e1, e2)
	require.ErrorIs(t, e, e1, "equal to the cause")
	require.ErrorIs(t, e, e2, "equal to the underlying error, too")
	require.Equal(t, "tt: dd", e.Error())

	require.Nil(t, serr.Wrap(nil, e2), "wrap nil got nil")
	require.Equal(t, e1, serr.Wrap(e1, nil), "nothing to wrap")
}

func TestWrapf(t *testing.T) {
	e1 := serr.New("tt")
	e2 := serr.New("dd")
	e := serr.Wrapf(e1, "%w: 4", e2)
	require.ErrorIs(t, e, e1)
	require.ErrorIs(t, e, e2)
	require.Equal(t, "tt: dd: 4", e.Error())
	var we *serr.WError
	require.ErrorAs(t, e, &we)
	require.Equal(t, e1, we.Cause())

	require.Nil(t, serr.Wrapf(nil, ""), "wrap nil got nil")
}

func TestCollect(t *testing.T) {
	e1 := serr.New("tt")
	e2 := serr.New("dd")
	e3 := serr.New("ee")
	e := serr.Collect(e1, e2, e3)
	require.ErrorIs(t, e, e1)
	require.ErrorIs(t, e, e3)
	require.Equal(t, []error{e2, e3}, e.(*serr.MError).Cause())

	e4 := serr.Collect(e1, e2, nil).(*serr.MError)
	require.Len(t, e4.Cause(), 1, "collect non-nil errors only")
	require.NoError(t, serr.Collect(e3, nil, nil), "nil if all errors are nil")
	require.NoError(t, serr.Collect(e3))
}
