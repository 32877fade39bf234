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

// Package allocator implements the High Contention Allocator: given a
// subspace, it hands out short non-negative integers that no concurrent
// caller sharing that subspace will ever be handed twice, using windowed
// counters and optimistic conflict detection rather than a single
// serializing lock held across the database round trip.
package allocator

import (
	"context"
	"encoding/binary"
	"math/rand"
	"sync"

	"github.com/pkg/errors"

	"github.com/fdbkit/fdbkit/fdb"
	"github.com/fdbkit/fdbkit/internal/log"
	"github.com/fdbkit/fdbkit/subspace"
	"github.com/fdbkit/fdbkit/tuple"
)

// InvalidMetadataError is returned when a counter value is not exactly 8
// bytes, meaning the subspace holds data this allocator did not write.
type InvalidMetadataError struct {
	Key []byte
	Len int
}

func (e *InvalidMetadataError) Error() string {
	return errors.Errorf("allocator: counter at %x has length %d, want 8", e.Key, e.Len).Error()
}

// Allocator is a High Contention Allocator bound to a subspace. One
// Allocator may be shared by many concurrent callers within a process; its
// mutex serializes only the brief critical sections spec.md §4.4 requires,
// never a full database round trip.
type Allocator struct {
	counters subspace.Subspace
	recent   subspace.Subspace

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an Allocator whose state lives under root: root.Sub({0}) for
// window counters, root.Sub({1}) for recent-allocation markers.
func New(root subspace.Subspace) *Allocator {
	return &Allocator{
		counters: root.MustSub(tuple.Tuple{tuple.IntFromInt64(0)}),
		recent:   root.MustSub(tuple.Tuple{tuple.IntFromInt64(1)}),
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// windowSizeFor returns the number of candidates available in the window
// starting at start, per §4.4's sizing table.
func windowSizeFor(start int64) int64 {
	switch {
	case start < 255:
		return 64
	case start < 65535:
		return 1024
	default:
		return 8192
	}
}

// Allocate returns an integer that has never been, and never will be,
// returned again by any concurrent caller of Allocate sharing this
// Allocator's subspace, as observed through tr. The candidate is encoded
// via the tuple codec, so its lexicographic byte order tracks its numeric
// order; callers that need a byte string (e.g. the directory layer) pack
// it themselves with tuple.Pack.
func (a *Allocator) Allocate(ctx context.Context, tr fdb.Transaction) (int64, error) {
	for {
		windowStart, err := a.findWindow(ctx, tr)
		if err != nil {
			return 0, err
		}
		candidate, ok, err := a.findCandidate(ctx, tr, windowStart)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue // window moved; restart from phase 1
		}
		return candidate, nil
	}
}

// findWindow is Phase 1: it advances the window until the current
// window's occupancy is under half capacity, then returns that window's
// start.
func (a *Allocator) findWindow(ctx context.Context, tr fdb.Transaction) (int64, error) {
	windowAdvanced := false
	var windowStart int64

	a.mu.Lock()
	start, err := a.lastWindowStart(ctx, tr)
	a.mu.Unlock()
	if err != nil {
		return 0, err
	}
	windowStart = start

	for {
		if windowAdvanced {
			if err := a.clearBelow(tr, windowStart); err != nil {
				return 0, err
			}
		}

		a.mu.Lock()
		count, err := a.incrementAndRead(ctx, tr, windowStart)
		a.mu.Unlock()
		if err != nil {
			return 0, err
		}

		window := windowSizeFor(windowStart)
		if count*2 < window {
			return windowStart, nil
		}

		log.Get().Debugw("allocator: window exhausted, advancing", "window_start", windowStart, "count", count, "window", window)
		windowStart += window
		windowAdvanced = true
	}
}

// lastWindowStart snapshot-reads the last counters entry (reverse range,
// limit 1) and returns its decoded window start, or 0 if the subspace is
// empty. Must be called with a.mu held.
func (a *Allocator) lastWindowStart(ctx context.Context, tr fdb.Transaction) (int64, error) {
	begin, end := a.counters.Range()
	page, err := tr.GetRange(ctx, fdb.RangeOptions{
		Begin:   fdb.FirstGreaterOrEqual(begin),
		End:     fdb.FirstGreaterOrEqual(end),
		Limit:   1,
		Reverse: true,
	}, true)
	if err != nil {
		return 0, err
	}
	if len(page.KeyValues) == 0 {
		return 0, nil
	}
	t, err := a.counters.Unpack(page.KeyValues[0].Key)
	if err != nil {
		return 0, err
	}
	if len(t) != 1 {
		return 0, &InvalidMetadataError{Key: page.KeyValues[0].Key, Len: len(t)}
	}
	n, ok := t[0].AsInt()
	if !ok {
		return 0, &InvalidMetadataError{Key: page.KeyValues[0].Key, Len: len(t)}
	}
	return n.Int64(), nil
}

// clearBelow clears counters and recent markers below windowStart. The
// recent clear is marked NextWriteNoWriteConflictRange so it does not
// create a write conflict with a concurrent allocator's reservation in
// that range.
func (a *Allocator) clearBelow(tr fdb.Transaction, windowStart int64) error {
	countersBoundary, err := a.counters.Pack(tuple.Tuple{tuple.IntFromInt64(windowStart)})
	if err != nil {
		return err
	}
	countersBegin, _ := a.counters.Range()
	tr.ClearRange(countersBegin, countersBoundary)

	recentBoundary, err := a.recent.Pack(tuple.Tuple{tuple.IntFromInt64(windowStart)})
	if err != nil {
		return err
	}
	recentBegin, _ := a.recent.Range()
	tr.SetOption(fdb.NextWriteNoWriteConflictRange())
	tr.ClearRange(recentBegin, recentBoundary)
	return nil
}

// incrementAndRead performs the atomic increment and the paired snapshot
// read as one critical section, so this process sees a self-consistent
// view of its own increment. Must be called with a.mu held.
func (a *Allocator) incrementAndRead(ctx context.Context, tr fdb.Transaction, windowStart int64) (int64, error) {
	key, err := a.counters.Pack(tuple.Tuple{tuple.IntFromInt64(windowStart)})
	if err != nil {
		return 0, err
	}
	var delta [8]byte
	binary.LittleEndian.PutUint64(delta[:], 1)
	tr.AtomicOp(key, delta[:], fdb.MutationAdd)

	value, err := tr.Get(ctx, key, true)
	if err != nil {
		return 0, err
	}
	if len(value) != 8 {
		return 0, &InvalidMetadataError{Key: key, Len: len(value)}
	}
	return int64(binary.LittleEndian.Uint64(value)), nil
}

// findCandidate is Phase 2: it picks a random candidate in the window and
// tries to reserve it, picking again inside its own loop whenever the
// candidate is already marked recent. ok is false only if the window moved
// (caller should restart Phase 1).
func (a *Allocator) findCandidate(ctx context.Context, tr fdb.Transaction, windowStart int64) (int64, bool, error) {
	window := windowSizeFor(windowStart)
	for {
		a.mu.Lock()
		candidate := windowStart + randInt63n(a.rng, window)

		latestStart, err := a.lastWindowStart(ctx, tr)
		if err != nil {
			a.mu.Unlock()
			return 0, false, err
		}
		if latestStart > windowStart {
			a.mu.Unlock()
			return 0, false, nil // window moved; restart Phase 1
		}

		recentKey, err := a.recent.Pack(tuple.Tuple{tuple.IntFromInt64(candidate)})
		if err != nil {
			a.mu.Unlock()
			return 0, false, err
		}
		existing, err := tr.Get(ctx, recentKey, false)
		if err != nil {
			a.mu.Unlock()
			return 0, false, err
		}

		tr.SetOption(fdb.NextWriteNoWriteConflictRange())
		tr.Set(recentKey, nil)
		a.mu.Unlock()

		if existing != nil {
			continue // candidate already marked recent; try another
		}

		if err := tr.AddConflictRange(recentKey, append(append([]byte(nil), recentKey...), 0x00), fdb.ConflictRangeWrite); err != nil {
			return 0, false, err
		}
		return candidate, true, nil
	}
}

func randInt63n(r *rand.Rand, n int64) int64 {
	if n <= 0 {
		return 0
	}
	return r.Int63n(n)
}

// CandidateKey returns the tuple-packed key assigned to n within root's
// content subspace, i.e. root.Pack({n}). Callers that allocate a prefix
// (the directory layer) call this to turn an allocated integer into a key
// suffix.
func CandidateKey(root subspace.Subspace, n int64) ([]byte, error) {
	return root.Pack(tuple.Tuple{tuple.IntFromInt64(n)})
}
