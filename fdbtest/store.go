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

// Package fdbtest is an in-memory fake of the fdb package's Database and
// Transaction contract, good enough to drive the allocator and directory
// packages through their full logic without a running database. It is
// modeled directly on the teacher's in-memory chunk store fake
// (go/store/chunks/test_utils.go's MemoryStorage/TestStoreView): a single
// mutex-guarded map standing in for the real storage engine, wrapped by a
// thin view that the package under test talks to through the same
// interface a real backend would implement.
package fdbtest

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/fdbkit/fdbkit/fdb"
)

type item struct {
	key   []byte
	value []byte
}

type writeRecord struct {
	version int64
	ranges  []keyRange
}

type keyRange struct {
	begin, end []byte // [begin, end)
}

func (r keyRange) overlaps(o keyRange) bool {
	return bytesLess(r.begin, o.end) && bytesLess(o.begin, r.end)
}

func bytesLess(a, b []byte) bool {
	// empty end means "no upper bound"
	if len(b) == 0 {
		return true
	}
	return string(a) < string(b)
}

// Store is the shared in-memory backend. Multiple Database handles created
// via NewDatabase over the same Store observe each other's commits, the
// way concurrent clients observe a shared FoundationDB cluster.
type Store struct {
	mu      sync.Mutex
	items   []item // sorted by key
	version int64
	log     []writeRecord
}

// NewStore creates an empty backing store.
func NewStore() *Store {
	return &Store{version: 1}
}

func (s *Store) find(key []byte) (int, bool) {
	i := sort.Search(len(s.items), func(i int) bool {
		return string(s.items[i].key) >= string(key)
	})
	if i < len(s.items) && string(s.items[i].key) == string(key) {
		return i, true
	}
	return i, false
}

// snapshotGet reads key's latest committed value. The store keeps only one
// value per key, so reads are "as of now" rather than as of a transaction's
// read version; the commit-time conflict check still walks the write log
// against readVersion, so callers reading concurrently-written keys are
// forced to retry.
func (s *Store) snapshotGet(key []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(key)
	if !ok {
		return nil
	}
	return copyPresent(s.items[i].value)
}

// copyPresent copies v into a freshly allocated slice that is never nil,
// even when v is empty or nil itself. It is used whenever "found, with an
// empty value" (e.g. the HCA's recent-allocation markers) must stay
// distinguishable from "not found" across the nil-means-absent convention
// Transaction.Get follows.
func copyPresent(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (s *Store) snapshotGetRange(begin, end []byte, limit int, reverse bool) []fdb.KeyValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo := sort.Search(len(s.items), func(i int) bool { return string(s.items[i].key) >= string(begin) })
	hi := len(s.items)
	if len(end) > 0 {
		hi = sort.Search(len(s.items), func(i int) bool { return string(s.items[i].key) >= string(end) })
	}
	var out []fdb.KeyValue
	if reverse {
		for i := hi - 1; i >= lo; i-- {
			out = append(out, fdb.KeyValue{Key: append([]byte(nil), s.items[i].key...), Value: append([]byte(nil), s.items[i].value...)})
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	} else {
		for i := lo; i < hi; i++ {
			out = append(out, fdb.KeyValue{Key: append([]byte(nil), s.items[i].key...), Value: append([]byte(nil), s.items[i].value...)})
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

func (s *Store) currentVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// conflicts reports whether any write committed strictly after readVersion
// touched a range overlapping reads.
func (s *Store) conflicts(readVersion int64, reads []keyRange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.log {
		if rec.version <= readVersion {
			continue
		}
		for _, w := range rec.ranges {
			for _, r := range reads {
				if w.overlaps(r) {
					return true
				}
			}
		}
	}
	return false
}

// commitWithVersion applies muts atomically, assigning the commit a fresh
// monotonic version under the store's lock (so concurrent commits never
// share a transaction version), and returns that version along with its
// 10-byte encoding for versionstamped mutations. The caller has already
// checked for conflicts.
func (s *Store) commitWithVersion(muts []mutation, writeRanges []keyRange) (int64, [10]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	var trVersion [10]byte
	binary.BigEndian.PutUint64(trVersion[:8], uint64(s.version))

	for _, m := range muts {
		m.apply(s, trVersion)
	}
	if len(writeRanges) > 0 {
		s.log = append(s.log, writeRecord{version: s.version, ranges: writeRanges})
	}
	return s.version, trVersion
}

func (s *Store) rawSet(key, value []byte) {
	i, ok := s.find(key)
	if ok {
		s.items[i].value = append([]byte(nil), value...)
		return
	}
	s.items = append(s.items, item{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = item{key: append([]byte(nil), key...), value: append([]byte(nil), value...)}
}

func (s *Store) rawGet(key []byte) ([]byte, bool) {
	i, ok := s.find(key)
	if !ok {
		return nil, false
	}
	return s.items[i].value, true
}

func (s *Store) rawClear(key []byte) {
	i, ok := s.find(key)
	if !ok {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
}

func (s *Store) rawClearRange(begin, end []byte) {
	lo := sort.Search(len(s.items), func(i int) bool { return string(s.items[i].key) >= string(begin) })
	hi := len(s.items)
	if len(end) > 0 {
		hi = sort.Search(len(s.items), func(i int) bool { return string(s.items[i].key) >= string(end) })
	}
	s.items = append(s.items[:lo], s.items[hi:]...)
}
