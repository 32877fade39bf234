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

package fdbtest

import (
	"context"

	"github.com/fdbkit/fdbkit/fdb"
)

// database is the fdb.Database implementation backed by a Store.
type database struct {
	store *Store
}

// NewDatabase wraps store as an fdb.Database.
func NewDatabase(store *Store) fdb.Database {
	return &database{store: store}
}

func (d *database) CreateTransaction() (fdb.Transaction, error) {
	return NewTransaction(d.store), nil
}

func (d *database) Transact(
	ctx context.Context,
	fn func(ctx context.Context, tr fdb.Transaction) (any, error),
	opts ...fdb.DatabaseOption,
) (any, error) {
	o := fdb.ResolveDatabaseOptions(opts)
	return fdb.RunTransact(ctx, d.CreateTransaction, fn, o.TransactionRetryLimit(), o.TransactionMaxRetryDelay())
}
