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

import "time"

// StreamingMode selects how aggressively a range read prefetches pages,
// matching the modes exercised by the directory layer's batch scans and
// the HCA's limit-1 window scans.
type StreamingMode int

const (
	StreamingModeWantAll StreamingMode = iota
	StreamingModeIterator
	StreamingModeExact
	StreamingModeSmall
	StreamingModeMedium
	StreamingModeLarge
	StreamingModeSerial
)

func (m StreamingMode) String() string {
	switch m {
	case StreamingModeWantAll:
		return "WantAll"
	case StreamingModeIterator:
		return "Iterator"
	case StreamingModeExact:
		return "Exact"
	case StreamingModeSmall:
		return "Small"
	case StreamingModeMedium:
		return "Medium"
	case StreamingModeLarge:
		return "Large"
	case StreamingModeSerial:
		return "Serial"
	default:
		return "Unknown"
	}
}

// RangeOptions configures a ranged read.
type RangeOptions struct {
	Begin       KeySelector
	End         KeySelector
	Limit       int
	Reverse     bool
	Mode        StreamingMode
	TargetBytes int
}

// MutationType identifies an atomic read-modify-write operation applied at
// commit time without a client-side read.
type MutationType int

const (
	MutationAdd MutationType = iota
	MutationBitAnd
	MutationBitOr
	MutationBitXor
	MutationMin
	MutationMax
	MutationByteMin
	MutationByteMax
	MutationSetVersionstampedKey
	MutationSetVersionstampedValue
)

func (m MutationType) String() string {
	switch m {
	case MutationAdd:
		return "Add"
	case MutationBitAnd:
		return "BitAnd"
	case MutationBitOr:
		return "BitOr"
	case MutationBitXor:
		return "BitXor"
	case MutationMin:
		return "Min"
	case MutationMax:
		return "Max"
	case MutationByteMin:
		return "ByteMin"
	case MutationByteMax:
		return "ByteMax"
	case MutationSetVersionstampedKey:
		return "SetVersionstampedKey"
	case MutationSetVersionstampedValue:
		return "SetVersionstampedValue"
	default:
		return "Unknown"
	}
}

// ConflictRangeType distinguishes a read-conflict range from a
// write-conflict range added manually via Transaction.AddConflictRange.
type ConflictRangeType int

const (
	ConflictRangeRead ConflictRangeType = iota
	ConflictRangeWrite
)

// TransactionOption configures a single Transaction, matching §6.3.
type TransactionOption struct {
	name  string
	apply func(*transactionOptions)
}

type transactionOptions struct {
	nextWriteNoWriteConflictRange bool
	timeout                       time.Duration
	retryLimit                    int
	maxRetryDelay                 time.Duration
}

// NextWriteNoWriteConflictRange suppresses the conflict range that would
// otherwise be added by the transaction's next write. The HCA uses this to
// clear stale counters/recent markers without creating a write conflict
// against concurrent allocators.
func NextWriteNoWriteConflictRange() TransactionOption {
	return TransactionOption{name: "NextWriteNoWriteConflictRange", apply: func(o *transactionOptions) {
		o.nextWriteNoWriteConflictRange = true
	}}
}

// Timeout fails pending operations on the transaction with a retryable
// timeout error after d elapses.
func Timeout(d time.Duration) TransactionOption {
	return TransactionOption{name: "Timeout", apply: func(o *transactionOptions) { o.timeout = d }}
}

// RetryLimit bounds the number of times Database.Transact retries its body.
func RetryLimit(n int) TransactionOption {
	return TransactionOption{name: "RetryLimit", apply: func(o *transactionOptions) { o.retryLimit = n }}
}

// MaxRetryDelay caps the exponential backoff delay between retries.
func MaxRetryDelay(d time.Duration) TransactionOption {
	return TransactionOption{name: "MaxRetryDelay", apply: func(o *transactionOptions) { o.maxRetryDelay = d }}
}

// Name returns the option's identifier, mainly for logging.
func (o TransactionOption) Name() string { return o.name }

// ResolveTransactionOptions applies opts over a zero-valued options set and
// returns the result; used by fdbtest and by Database.Transact.
func ResolveTransactionOptions(opts []TransactionOption) transactionOptions {
	var o transactionOptions
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// NextWriteNoWriteConflictRange reports whether that option was set.
func (o transactionOptions) NextWriteNoWriteConflictRange() bool { return o.nextWriteNoWriteConflictRange }

// Timeout returns the configured timeout, or zero if unset.
func (o transactionOptions) Timeout() time.Duration { return o.timeout }

// RetryLimit returns the configured retry limit, or zero if unset.
func (o transactionOptions) RetryLimit() int { return o.retryLimit }

// MaxRetryDelay returns the configured max retry delay, or zero if unset.
func (o transactionOptions) MaxRetryDelay() time.Duration { return o.maxRetryDelay }

// DatabaseOption configures a Database.
type DatabaseOption struct {
	name  string
	apply func(*databaseOptions)
}

type databaseOptions struct {
	transactionTimeout    time.Duration
	transactionRetryLimit int
	transactionMaxDelay   time.Duration
}

// TransactionTimeout sets the default Timeout applied to every transaction
// created by this database.
func TransactionTimeout(d time.Duration) DatabaseOption {
	return DatabaseOption{name: "TransactionTimeout", apply: func(o *databaseOptions) { o.transactionTimeout = d }}
}

// TransactionRetryLimit sets the default RetryLimit applied by Transact.
func TransactionRetryLimit(n int) DatabaseOption {
	return DatabaseOption{name: "TransactionRetryLimit", apply: func(o *databaseOptions) { o.transactionRetryLimit = n }}
}

// TransactionMaxRetryDelay sets the default MaxRetryDelay applied by
// Transact.
func TransactionMaxRetryDelay(d time.Duration) DatabaseOption {
	return DatabaseOption{name: "TransactionMaxRetryDelay", apply: func(o *databaseOptions) { o.transactionMaxDelay = d }}
}

// ResolveDatabaseOptions applies opts over a zero-valued options set.
// Database implementations (including fdbtest) call this to read back the
// retry knobs configured via TransactionRetryLimit/TransactionMaxRetryDelay.
func ResolveDatabaseOptions(opts []DatabaseOption) databaseOptions {
	var o databaseOptions
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// TransactionTimeout returns the configured default timeout, or zero if
// unset.
func (o databaseOptions) TransactionTimeout() time.Duration { return o.transactionTimeout }

// TransactionRetryLimit returns the configured default retry limit, or
// zero if unset.
func (o databaseOptions) TransactionRetryLimit() int { return o.transactionRetryLimit }

// TransactionMaxRetryDelay returns the configured default max retry delay,
// or zero if unset.
func (o databaseOptions) TransactionMaxRetryDelay() time.Duration { return o.transactionMaxDelay }
