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

// Package subspace implements a prefix-scoped namespace over the tuple
// codec: a Subspace pairs a byte prefix with tuple packing helpers so
// callers never hand-concatenate prefixes and packed tuples themselves.
package subspace

import (
	"bytes"

	"github.com/fdbkit/fdbkit/tuple"
)

// Subspace wraps a byte prefix shared by every key it produces.
type Subspace struct {
	prefix []byte
}

// FromBytes wraps an existing byte prefix as a Subspace. prefix is copied.
func FromBytes(prefix []byte) Subspace {
	return Subspace{prefix: append([]byte(nil), prefix...)}
}

// All returns the Subspace with an empty prefix, spanning the whole
// keyspace.
func All() Subspace { return Subspace{} }

// Bytes returns the subspace's raw prefix.
func (s Subspace) Bytes() []byte { return s.prefix }

// Sub returns a new Subspace whose prefix extends s's prefix with the
// tuple-packed encoding of t.
func (s Subspace) Sub(t tuple.Tuple) (Subspace, error) {
	packed, err := tuple.Pack(t)
	if err != nil {
		return Subspace{}, err
	}
	return Subspace{prefix: append(append([]byte(nil), s.prefix...), packed...)}, nil
}

// MustSub is Sub but panics on a packing error; intended for subspaces
// derived from constant, known-good tuples (e.g. string literals).
func (s Subspace) MustSub(t tuple.Tuple) Subspace {
	sub, err := s.Sub(t)
	if err != nil {
		panic(err)
	}
	return sub
}

// Pack returns s.Bytes() followed by the tuple-packed encoding of t.
func (s Subspace) Pack(t tuple.Tuple) ([]byte, error) {
	packed, err := tuple.Pack(t)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), s.prefix...), packed...), nil
}

// PackWithVersionstamp is Pack, but for tuples carrying a single incomplete
// Versionstamp element; see tuple.PackWithVersionstamp.
func (s Subspace) PackWithVersionstamp(t tuple.Tuple) ([]byte, error) {
	return tuple.PackWithVersionstamp(s.prefix, t)
}

// Unpack strips s's prefix from key and decodes the remainder as a tuple,
// failing with a BadPrefixError if key does not start with s's prefix.
func (s Subspace) Unpack(key []byte) (tuple.Tuple, error) {
	if !bytes.HasPrefix(key, s.prefix) {
		return nil, &tuple.BadPrefixError{Key: key, Prefix: s.prefix}
	}
	return tuple.Unpack(key[len(s.prefix):])
}

// Range returns the begin/end key pair spanning every key with s's prefix:
// begin = prefix . 0x00, end = prefix . 0xFF.
func (s Subspace) Range() (begin, end []byte) {
	begin = append(append([]byte(nil), s.prefix...), 0x00)
	end = append(append([]byte(nil), s.prefix...), 0xFF)
	return begin, end
}

// IsStartOf reports whether key begins with s's prefix.
func (s Subspace) IsStartOf(key []byte) bool {
	return bytes.HasPrefix(key, s.prefix)
}

// Contains is an alias for IsStartOf.
func (s Subspace) Contains(key []byte) bool { return s.IsStartOf(key) }
