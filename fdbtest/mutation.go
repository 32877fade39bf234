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
	"encoding/binary"

	"github.com/fdbkit/fdbkit/fdb"
)

type mutation interface {
	apply(s *Store, trVersion [10]byte)
}

type setMutation struct{ key, value []byte }

func (m setMutation) apply(s *Store, _ [10]byte) { s.rawSet(m.key, m.value) }

type clearMutation struct{ key []byte }

func (m clearMutation) apply(s *Store, _ [10]byte) { s.rawClear(m.key) }

type clearRangeMutation struct{ begin, end []byte }

func (m clearRangeMutation) apply(s *Store, _ [10]byte) { s.rawClearRange(m.begin, m.end) }

type atomicMutation struct {
	key   []byte
	param []byte
	op    fdb.MutationType
}

func (m atomicMutation) apply(s *Store, trVersion [10]byte) {
	switch m.op {
	case fdb.MutationSetVersionstampedKey:
		key := resolveVersionstampPlaceholder(m.key, trVersion)
		s.rawSet(key, m.param)
		return
	case fdb.MutationSetVersionstampedValue:
		value := resolveVersionstampPlaceholder(m.param, trVersion)
		s.rawSet(m.key, value)
		return
	}

	existing, _ := s.rawGet(m.key)
	s.rawSet(m.key, applyNumericOrByteOp(m.op, existing, m.param))
}

// resolveVersionstampPlaceholder replaces the 10-byte 0xFF placeholder at
// the offset encoded in the trailing little-endian uint32 with trVersion,
// and strips that trailing offset, per tuple.PackWithVersionstamp's
// contract.
func resolveVersionstampPlaceholder(b []byte, trVersion [10]byte) []byte {
	if len(b) < 4 {
		return append([]byte(nil), b...)
	}
	offset := binary.LittleEndian.Uint32(b[len(b)-4:])
	body := append([]byte(nil), b[:len(b)-4]...)
	if int(offset)+10 <= len(body) {
		copy(body[offset:offset+10], trVersion[:])
	}
	return body
}

func applyNumericOrByteOp(op fdb.MutationType, existing, param []byte) []byte {
	switch op {
	case fdb.MutationAdd:
		return leAdd(defaultZero(existing, len(param)), param)
	case fdb.MutationBitAnd:
		return byteWise(defaultZero(existing, len(param)), param, func(a, b byte) byte { return a & b })
	case fdb.MutationBitOr:
		return byteWise(defaultZero(existing, len(param)), param, func(a, b byte) byte { return a | b })
	case fdb.MutationBitXor:
		return byteWise(defaultZero(existing, len(param)), param, func(a, b byte) byte { return a ^ b })
	case fdb.MutationMin:
		if leCompare(defaultZero(existing, len(param)), param) <= 0 {
			return defaultZero(existing, len(param))
		}
		return append([]byte(nil), param...)
	case fdb.MutationMax:
		if leCompare(defaultZero(existing, len(param)), param) >= 0 {
			return defaultZero(existing, len(param))
		}
		return append([]byte(nil), param...)
	case fdb.MutationByteMin:
		if existing == nil {
			return append([]byte(nil), param...)
		}
		if string(existing) <= string(param) {
			return existing
		}
		return append([]byte(nil), param...)
	case fdb.MutationByteMax:
		if existing == nil {
			return append([]byte(nil), param...)
		}
		if string(existing) >= string(param) {
			return existing
		}
		return append([]byte(nil), param...)
	}
	return existing
}

func defaultZero(existing []byte, n int) []byte {
	if existing != nil {
		return existing
	}
	return make([]byte, n)
}

// leAdd adds two little-endian byte strings of equal length, wrapping on
// overflow, matching FoundationDB's ADD mutation semantics.
func leAdd(a, b []byte) []byte {
	n := len(a)
	out := make([]byte, n)
	var carry uint16
	for i := 0; i < n; i++ {
		sum := uint16(a[i]) + uint16(b[i]) + carry
		out[i] = byte(sum)
		carry = sum >> 8
	}
	return out
}

// leCompare compares two equal-length little-endian byte strings as
// unsigned integers.
func leCompare(a, b []byte) int {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func byteWise(a, b []byte, f func(a, b byte) byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = f(a[i], b[i])
	}
	return out
}
