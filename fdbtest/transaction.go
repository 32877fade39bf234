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
	"sort"
	"sync"

	"github.com/fdbkit/fdbkit/fdb"
	"github.com/fdbkit/fdbkit/tuple"
)

// commitMu makes each Commit's conflict check and the application of its
// mutations one atomic step, so two transactions cannot both pass the check
// before either has recorded its writes.
var commitMu sync.Mutex

// transaction is the fdb.Transaction implementation. One is created
// per CreateTransaction/retry attempt; it holds no state shared across
// attempts beyond what the Store itself holds.
type transaction struct {
	store *Store

	mu          sync.Mutex
	readVersion int64
	reads       []keyRange
	manualReads []keyRange
	writes      []keyRange
	muts        []mutation

	suppressNextConflict bool
	cancelled            bool

	committedVersion int64
	committed        bool
	trVersion        [10]byte
}

// NewTransaction constructs a standalone transaction over store, for tests
// that want to drive the fdb.Transaction contract without a Database.
func NewTransaction(store *Store) fdb.Transaction {
	return &transaction{store: store, readVersion: store.currentVersion()}
}

func (t *transaction) recordRead(begin, end []byte, snapshot bool) {
	if snapshot {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads = append(t.reads, keyRange{begin: begin, end: end})
}

func (t *transaction) recordWrite(begin, end []byte) {
	t.mu.Lock()
	suppress := t.suppressNextConflict
	t.suppressNextConflict = false
	t.mu.Unlock()
	if suppress {
		return
	}
	t.mu.Lock()
	t.writes = append(t.writes, keyRange{begin: begin, end: end})
	t.mu.Unlock()
}

func (t *transaction) Get(ctx context.Context, key []byte, snapshot bool) ([]byte, error) {
	// Read-your-writes: the most recent pending Set/Clear on this exact
	// key, if any, wins over the store's committed value, and pending atomic
	// ops on the key issued after it are applied on top, in issue order.
	// Pending clear-ranges are not resolved client-side.
	var atomics []atomicMutation // newest first
	withAtomics := func(base []byte) []byte {
		for i := len(atomics) - 1; i >= 0; i-- {
			base = applyNumericOrByteOp(atomics[i].op, base, atomics[i].param)
		}
		return base
	}
	for _, m := range t.pendingMuts() {
		switch v := m.(type) {
		case setMutation:
			if string(v.key) == string(key) {
				return withAtomics(copyPresent(v.value)), nil
			}
		case clearMutation:
			if string(v.key) == string(key) {
				return withAtomics(nil), nil
			}
		case atomicMutation:
			if string(v.key) == string(key) {
				atomics = append(atomics, v)
			}
		}
	}
	t.recordRead(key, append(append([]byte(nil), key...), 0x00), snapshot)
	return withAtomics(t.store.snapshotGet(key)), nil
}

func (t *transaction) pendingMuts() []mutation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]mutation, len(t.muts))
	for i := range t.muts {
		out[len(t.muts)-1-i] = t.muts[i]
	}
	return out
}

// selectorIndex resolves sel against the full sorted snapshot all, returning
// the index of the key it refers to. The base comparison finds the first key
// that is >= sel.Key (sel.OrEqual) or strictly > sel.Key (!sel.OrEqual); the
// resolved index then walks sel.Offset-1 keys forward from that base, the
// same convention FoundationDB's own key selectors use. A returned index may
// be negative or >= len(all) when the selector resolves before the first or
// past the last key.
func selectorIndex(all []fdb.KeyValue, sel fdb.KeySelector) int {
	idx := sort.Search(len(all), func(i int) bool {
		if sel.OrEqual {
			return string(all[i].Key) >= string(sel.Key)
		}
		return string(all[i].Key) > string(sel.Key)
	})
	return idx + int(sel.Offset) - 1
}

func (t *transaction) GetKey(ctx context.Context, sel fdb.KeySelector, snapshot bool) ([]byte, error) {
	all := t.store.snapshotGetRange(nil, nil, 0, false)
	idx := selectorIndex(all, sel)
	if idx < 0 || idx >= len(all) {
		return nil, nil
	}
	return all[idx].Key, nil
}

// GetRange resolves opt.Begin/opt.End through the same selector semantics as
// GetKey before slicing, rather than treating their Key fields as literal
// bounds. This matters once a caller pages past a boundary key by re-issuing
// Begin as FirstGreaterThan(last): resolving the selector (instead of
// reusing its raw Key field) is what actually excludes last from the next
// page.
func (t *transaction) GetRange(ctx context.Context, opt fdb.RangeOptions, snapshot bool) (fdb.Page, error) {
	t.recordRead(opt.Begin.Key, opt.End.Key, snapshot)

	all := t.store.snapshotGetRange(nil, nil, 0, false)
	beginIdx := selectorIndex(all, opt.Begin)
	if beginIdx < 0 {
		beginIdx = 0
	}
	endIdx := selectorIndex(all, opt.End)
	if endIdx > len(all) {
		endIdx = len(all)
	}
	if endIdx < beginIdx {
		endIdx = beginIdx
	}
	window := all[beginIdx:endIdx]

	more := false
	limited := window
	if opt.Limit > 0 && len(window) > opt.Limit {
		more = true
		if opt.Reverse {
			limited = window[len(window)-opt.Limit:]
		} else {
			limited = window[:opt.Limit]
		}
	}

	out := make([]fdb.KeyValue, len(limited))
	if opt.Reverse {
		for i, kv := range limited {
			out[len(limited)-1-i] = kv
		}
	} else {
		copy(out, limited)
	}
	return fdb.Page{KeyValues: out, More: more}, nil
}

type pageStream struct {
	tr   *transaction
	opt  fdb.RangeOptions
	snap bool
	done bool
}

func (p *pageStream) Next(ctx context.Context) (fdb.Page, bool, error) {
	if p.done {
		return fdb.Page{}, false, nil
	}
	page, err := p.tr.GetRange(ctx, p.opt, p.snap)
	if err != nil {
		return fdb.Page{}, false, err
	}
	if len(page.KeyValues) == 0 {
		p.done = true
		return fdb.Page{}, false, nil
	}
	if page.More {
		last := page.KeyValues[len(page.KeyValues)-1].Key
		if p.opt.Reverse {
			p.opt.End = fdb.FirstGreaterOrEqual(last)
		} else {
			p.opt.Begin = fdb.FirstGreaterThan(last)
		}
	} else {
		p.done = true
	}
	return page, true, nil
}

func (t *transaction) GetRanges(ctx context.Context, opt fdb.RangeOptions, snapshot bool) fdb.PageStream {
	return &pageStream{tr: t, opt: opt, snap: snapshot}
}

func (t *transaction) Set(key, value []byte) {
	t.mu.Lock()
	t.muts = append(t.muts, setMutation{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	t.mu.Unlock()
	t.recordWrite(key, append(append([]byte(nil), key...), 0x00))
}

func (t *transaction) Clear(key []byte) {
	t.mu.Lock()
	t.muts = append(t.muts, clearMutation{key: append([]byte(nil), key...)})
	t.mu.Unlock()
	t.recordWrite(key, append(append([]byte(nil), key...), 0x00))
}

func (t *transaction) ClearRange(begin, end []byte) {
	t.mu.Lock()
	t.muts = append(t.muts, clearRangeMutation{begin: append([]byte(nil), begin...), end: append([]byte(nil), end...)})
	t.mu.Unlock()
	t.recordWrite(begin, end)
}

func (t *transaction) AtomicOp(key, param []byte, op fdb.MutationType) {
	t.mu.Lock()
	t.muts = append(t.muts, atomicMutation{key: append([]byte(nil), key...), param: append([]byte(nil), param...), op: op})
	t.mu.Unlock()
	t.recordWrite(key, append(append([]byte(nil), key...), 0x00))
}

func (t *transaction) AddConflictRange(begin, end []byte, kind fdb.ConflictRangeType) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := keyRange{begin: append([]byte(nil), begin...), end: append([]byte(nil), end...)}
	switch kind {
	case fdb.ConflictRangeRead:
		t.manualReads = append(t.manualReads, r)
	case fdb.ConflictRangeWrite:
		t.writes = append(t.writes, r)
	}
	return nil
}

func (t *transaction) SetOption(opt fdb.TransactionOption) {
	if opt.Name() == "NextWriteNoWriteConflictRange" {
		t.mu.Lock()
		t.suppressNextConflict = true
		t.mu.Unlock()
	}
}

func (t *transaction) GetReadVersion(ctx context.Context) (int64, error) {
	return t.readVersion, nil
}

func (t *transaction) SetReadVersion(version int64) {
	t.readVersion = version
}

func (t *transaction) GetVersionstamp(ctx context.Context) (tuple.Versionstamp, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.committed {
		return tuple.Versionstamp{}, fdb.NewClientError(fdb.CodeFutureVersion, "versionstamp requested before commit", false, false)
	}
	var tv [10]byte
	copy(tv[:], t.trVersion[:])
	return tuple.Versionstamp{TransactionVersion: tv, UserVersion: 0}, nil
}

func (t *transaction) Commit(ctx context.Context) (fdb.CommittedTransaction, error) {
	t.mu.Lock()
	reads := append(append([]keyRange(nil), t.reads...), t.manualReads...)
	writes := append([]keyRange(nil), t.writes...)
	muts := append([]mutation(nil), t.muts...)
	readVersion := t.readVersion
	t.mu.Unlock()

	commitMu.Lock()
	defer commitMu.Unlock()
	if t.store.conflicts(readVersion, reads) {
		return fdb.CommittedTransaction{}, fdb.NewClientError(fdb.CodeNotCommitted, "conflicting transaction", true, false)
	}

	applied := make([]mutation, len(muts))
	copy(applied, muts)
	version, trVersion := t.store.commitWithVersion(applied, writes)

	t.mu.Lock()
	t.committed = true
	t.committedVersion = version
	t.trVersion = trVersion
	t.mu.Unlock()

	return fdb.CommittedTransaction{CommittedVersion: version}, nil
}

func (t *transaction) OnError(ctx context.Context, err error) (fdb.Transaction, error) {
	if fe, ok := err.(fdb.Error); ok && fe.Retryable() {
		return NewTransaction(t.store), nil
	}
	return nil, err
}

func (t *transaction) Reset() {
	*t = transaction{store: t.store, readVersion: t.store.currentVersion()}
}

func (t *transaction) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}
