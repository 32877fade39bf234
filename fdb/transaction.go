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

	"github.com/fdbkit/fdbkit/tuple"
)

// KeyValue is a single key/value pair returned by a range read.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Page is one page of a range read: the key/value pairs it contains, and
// whether more pages remain beyond it.
type Page struct {
	KeyValues []KeyValue
	More      bool
}

// PageStream lazily emits Pages for a range read until exhaustion. Each
// call to Next is a suspension point (§5): it resumes only once the
// client's native future resolves.
type PageStream interface {
	// Next returns the next page, or ok=false once the range is exhausted.
	Next(ctx context.Context) (page Page, ok bool, err error)
}

// CommittedTransaction is returned by a successful Commit.
type CommittedTransaction struct {
	CommittedVersion int64
}

// Transaction is the per-operation handle the tuple/subspace/allocator/
// directory packages read and write through. Every method that resolves a
// client future is a suspension point (§5); none introduce suspension of
// their own beyond that.
type Transaction interface {
	// Get fetches key's value, or nil if absent. snapshot reads do not
	// contribute to the transaction's read-conflict range.
	Get(ctx context.Context, key []byte, snapshot bool) ([]byte, error)

	// GetKey resolves a KeySelector to the literal key it refers to.
	GetKey(ctx context.Context, sel KeySelector, snapshot bool) ([]byte, error)

	// GetRange reads up to one page of a range.
	GetRange(ctx context.Context, opt RangeOptions, snapshot bool) (Page, error)

	// GetRanges returns a lazily paginated stream over a range, honoring
	// opt.Reverse for page and in-page key order.
	GetRanges(ctx context.Context, opt RangeOptions, snapshot bool) PageStream

	Set(key, value []byte)
	Clear(key []byte)
	ClearRange(begin, end []byte)

	// AtomicOp applies a mutation at commit time without a client read.
	AtomicOp(key, param []byte, op MutationType)

	// AddConflictRange manually adds a conflict range of the given kind,
	// e.g. the HCA's write-only reservation on its candidate key.
	AddConflictRange(begin, end []byte, kind ConflictRangeType) error

	SetOption(opt TransactionOption)

	GetReadVersion(ctx context.Context) (int64, error)
	SetReadVersion(version int64)

	// GetVersionstamp returns the transaction's versionstamp, resolved
	// only once Commit succeeds.
	GetVersionstamp(ctx context.Context) (tuple.Versionstamp, error)

	Commit(ctx context.Context) (CommittedTransaction, error)

	// OnError returns a reset transaction if err is retryable, or
	// re-raises err if it is terminal.
	OnError(ctx context.Context, err error) (Transaction, error)

	Reset()
	Cancel()
}

// Database creates transactions and drives the standard retry loop around
// a unit of work.
type Database interface {
	CreateTransaction() (Transaction, error)

	// Transact runs fn against a fresh transaction, retrying on retryable
	// errors per Transact's own retry discipline (see transact.go).
	Transact(ctx context.Context, fn func(ctx context.Context, tr Transaction) (any, error), opts ...DatabaseOption) (any, error)
}
