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

import "fmt"

// Error is a client error carrying the retryable/maybe-committed
// predicates the core (Database.Transact, the HCA, the directory layer)
// needs in order to decide whether to retry. A real client implementation
// backs this with the native error code; fdbtest backs it with a small
// table of synthetic codes.
type Error interface {
	error
	Code() int
	Retryable() bool
	MaybeCommitted() bool
}

// ClientError is a concrete Error implementation, usable directly by any
// Transaction/Database implementation (including fdbtest).
type ClientError struct {
	code            int
	message         string
	retryable       bool
	maybeCommitted  bool
}

// NewClientError constructs a ClientError.
func NewClientError(code int, message string, retryable, maybeCommitted bool) *ClientError {
	return &ClientError{code: code, message: message, retryable: retryable, maybeCommitted: maybeCommitted}
}

func (e *ClientError) Error() string         { return fmt.Sprintf("fdb: %s (code %d)", e.message, e.code) }
func (e *ClientError) Code() int             { return e.code }
func (e *ClientError) Retryable() bool       { return e.retryable }
func (e *ClientError) MaybeCommitted() bool  { return e.maybeCommitted }

// Well-known synthetic codes used by fdbtest. Transact's retry loop does
// not inspect codes; it leaves the retry decision to OnError, which goes by
// Retryable(). Real client implementations map their own native codes onto
// the same Retryable()/MaybeCommitted() predicates instead of these
// constants.
const (
	CodeNotCommitted        = 1020
	CodeCommitUnknownResult = 1021
	CodeTransactionTimedOut = 1031
	CodeTransactionTooOld   = 1007
	CodeFutureVersion       = 1009
)
