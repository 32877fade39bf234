// Copyright 2024 The fdbkit Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fdb

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fdbkit/fdbkit/internal/log"
)

const (
	defaultRetryLimit    = 100
	defaultMaxRetryDelay = 1 * time.Second
	defaultInitialDelay  = 10 * time.Millisecond
)

// RunTransact implements the retry discipline described in spec §5/§7:
// it runs fn against newTr's transaction, and on a retryable client error
// calls onErr (the transaction's OnError) to obtain a reset transaction
// before reinvoking fn. Retry is bounded by retryLimit retries with
// exponential backoff and jitter capped at maxDelay. Codec and directory
// errors (anything that isn't an fdb.Error) bubble out without retry.
//
// Database implementations call this from their own Transact method,
// analogous to how dolt's libraries/utils/retry package centralizes its
// backoff loop for callers that each supply their own unit of work.
func RunTransact(
	ctx context.Context,
	newTr func() (Transaction, error),
	fn func(ctx context.Context, tr Transaction) (any, error),
	retryLimit int,
	maxDelay time.Duration,
) (any, error) {
	if retryLimit <= 0 {
		retryLimit = defaultRetryLimit
	}
	if maxDelay <= 0 {
		maxDelay = defaultMaxRetryDelay
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = defaultInitialDelay
	bo.MaxInterval = maxDelay
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0 // bounded by retryLimit below, not elapsed wall time

	tr, err := newTr()
	if err != nil {
		return nil, err
	}

	var result any
	for attempt := 0; ; attempt++ {
		result, err = fn(ctx, tr)
		if err == nil {
			if _, cerr := tr.Commit(ctx); cerr != nil {
				err = cerr
			} else {
				return result, nil
			}
		}

		if attempt >= retryLimit {
			return nil, err
		}

		nextTr, onErrErr := tr.OnError(ctx, err)
		if onErrErr != nil {
			// err was terminal: OnError re-raised it.
			return nil, onErrErr
		}
		tr = nextTr

		delay := bo.NextBackOff()
		log.Get().Debugw("fdb: retrying transaction", "attempt", attempt+1, "delay", delay, "cause", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
