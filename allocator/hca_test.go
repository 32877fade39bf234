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

package allocator_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdbkit/fdbkit/allocator"
	"github.com/fdbkit/fdbkit/fdb"
	"github.com/fdbkit/fdbkit/fdbtest"
	"github.com/fdbkit/fdbkit/subspace"
)

func TestAllocate_SingleCaller(t *testing.T) {
	store := fdbtest.NewStore()
	root := subspace.FromBytes([]byte{0xFE})
	a := allocator.New(root)

	ctx := context.Background()
	db := fdbtest.NewDatabase(store)

	seen := map[int64]bool{}
	for i := 0; i < 50; i++ {
		v, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
			return a.Allocate(ctx, tr)
		})
		require.NoError(t, err)
		n := v.(int64)
		assert.False(t, seen[n], "allocator returned %d twice", n)
		seen[n] = true
		assert.GreaterOrEqual(t, n, int64(0))
	}
}

func TestAllocate_ConcurrentCallersNeverCollide(t *testing.T) {
	store := fdbtest.NewStore()
	root := subspace.FromBytes([]byte{0xFE})
	a := allocator.New(root)
	db := fdbtest.NewDatabase(store)
	ctx := context.Background()

	const goroutines = 20
	const perGoroutine = 10

	var mu sync.Mutex
	seen := map[int64]int{}
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				v, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
					return a.Allocate(ctx, tr)
				})
				if !assert.NoError(t, err) {
					return
				}
				n := v.(int64)
				mu.Lock()
				seen[n]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine, "every allocated integer must be unique")
	for n, count := range seen {
		assert.Equal(t, 1, count, "value %d was allocated %d times", n, count)
	}
}

func TestCandidateKey_OrdersWithTupleCodec(t *testing.T) {
	root := subspace.FromBytes([]byte{0x01})
	a, b := int64(5), int64(6)
	ka, err := allocator.CandidateKey(root, a)
	require.NoError(t, err)
	kb, err := allocator.CandidateKey(root, b)
	require.NoError(t, err)
	assert.True(t, string(ka) < string(kb))
}
