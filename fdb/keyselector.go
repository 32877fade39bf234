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

// Package fdb declares the minimal transactional key-value contract the
// tuple codec, subspace, allocator and directory packages consume. It does
// not itself speak the database's wire protocol; the boot/stop lifecycle
// of a real client and its FFI bindings are external collaborators outside
// this repository's scope. fdbtest provides an in-memory implementation of
// this contract for tests.
package fdb

// KeySelector resolves to the key found by walking Offset-1 keys forward
// (or backward, if negative) from the first key matching the base
// comparison against Key: greater-or-equal or strictly greater, depending
// on OrEqual. An Offset of 1 therefore selects the base key itself.
type KeySelector struct {
	Key      []byte
	OrEqual  bool
	Offset   int32
}

// FirstGreaterOrEqual returns a selector for the first key >= key.
func FirstGreaterOrEqual(key []byte) KeySelector {
	return KeySelector{Key: key, OrEqual: true, Offset: 1}
}

// FirstGreaterThan returns a selector for the first key > key.
func FirstGreaterThan(key []byte) KeySelector {
	return KeySelector{Key: key, OrEqual: false, Offset: 1}
}

// LastLessOrEqual returns a selector for the last key <= key.
func LastLessOrEqual(key []byte) KeySelector {
	return KeySelector{Key: key, OrEqual: false, Offset: 0}
}

// LastLessThan returns a selector for the last key < key.
func LastLessThan(key []byte) KeySelector {
	return KeySelector{Key: key, OrEqual: true, Offset: 0}
}

// Add returns a selector offset by the given number of additional keys.
func (k KeySelector) Add(n int32) KeySelector {
	k.Offset += n
	return k
}
