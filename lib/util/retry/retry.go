// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	InfiniteCnt = 0
)

// NewBackOff retries every retryInterval, at most retryCnt times, until ctx is done.
func NewBackOff(ctx context.Context, retryInterval time.Duration, retryCnt uint64) backoff.BackOff {
	var bo backoff.BackOff
	bo = backoff.NewConstantBackOff(retryInterval)
	if ctx != nil {
		bo = backoff.WithContext(bo, ctx)
	}
	if retryCnt != InfiniteCnt {
		bo = backoff.WithMaxRetries(bo, retryCnt)
	}
	return bo
}

// Retry runs o until it succeeds or the retries run out. Wrap an error with
// backoff.Permanent to stop retrying.
func Retry(o backoff.Operation, ctx context.Context, retryInterval time.Duration, retryCnt uint64) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return backoff.Retry(o, NewBackOff(ctx, retryInterval, retryCnt))
}
