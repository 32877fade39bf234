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

package tuple

import (
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	codeNil          byte = 0x00
	codeBytes        byte = 0x01
	codeString       byte = 0x02
	codeNested       byte = 0x05
	codeNegIntStart  byte = 0x0C
	codeIntZero      byte = 0x14
	codePosIntStart  byte = 0x15
	codePosIntEnd    byte = 0x1C
	codeFloat        byte = 0x20
	codeDouble       byte = 0x21
	codeFalse        byte = 0x26
	codeTrue         byte = 0x27
	codeUUID         byte = 0x30
	codeVersionstamp byte = 0x33

	maxIntBytes = 8
)

// Pack encodes t into its canonical byte representation.
func Pack(t Tuple) ([]byte, error) {
	var buf []byte
	var err error
	if buf, err = PackInto(t, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// PackInto appends the encoding of t to buf and returns the extended slice.
// There is no framing difference between a top-level pack and an append.
func PackInto(t Tuple, buf []byte) ([]byte, error) {
	for _, el := range t {
		var err error
		buf, err = packElement(el, buf, true)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// packElement appends el's encoding to buf. topLevel controls how Nil is
// written: a bare 0x00 at the top level of a tuple stream, or an escaped
// 0x00 0xFF inside a nested tuple, so the nested tuple's 0x00 terminator
// stays unambiguous.
func packElement(el Element, buf []byte, topLevel bool) ([]byte, error) {
	switch el.kind {
	case KindNil:
		if topLevel {
			return append(buf, codeNil), nil
		}
		return append(buf, codeNil, 0xFF), nil
	case KindBytes:
		b, _ := el.AsBytes()
		buf = append(buf, codeBytes)
		return packEscapedPayload(b, buf), nil
	case KindString:
		s, _ := el.AsString()
		buf = append(buf, codeString)
		return packEscapedPayload([]byte(s), buf), nil
	case KindTuple:
		nested, _ := el.AsTuple()
		buf = append(buf, codeNested)
		for _, sub := range nested {
			var err error
			buf, err = packElement(sub, buf, false)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, codeNil), nil
	case KindInt:
		v, _ := el.AsInt()
		return packInt(v, buf)
	case KindFloat32:
		f, _ := el.AsFloat32()
		bits := math.Float32bits(f)
		bits = flipFloatBits32(bits)
		buf = append(buf, codeFloat)
		return append(buf, byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits)), nil
	case KindFloat64:
		f, _ := el.AsFloat64()
		bits := math.Float64bits(f)
		bits = flipFloatBits64(bits)
		buf = append(buf, codeDouble)
		for i := 7; i >= 0; i-- {
			buf = append(buf, byte(bits>>(8*uint(i))))
		}
		return buf, nil
	case KindBool:
		b, _ := el.AsBool()
		if b {
			return append(buf, codeTrue), nil
		}
		return append(buf, codeFalse), nil
	case KindUUID:
		u, _ := el.AsUUID()
		buf = append(buf, codeUUID)
		return append(buf, u[:]...), nil
	case KindVersionstamp:
		v, _ := el.AsVersionstamp()
		buf = append(buf, codeVersionstamp)
		return append(buf, v.Bytes()...), nil
	}
	return nil, &NotSupportedError{Value: el}
}

func packEscapedPayload(payload []byte, buf []byte) []byte {
	for _, b := range payload {
		if b == 0x00 {
			buf = append(buf, 0x00, 0xFF)
		} else {
			buf = append(buf, b)
		}
	}
	return append(buf, 0x00)
}

func flipFloatBits32(bits uint32) uint32 {
	if bits&0x80000000 != 0 {
		return ^bits
	}
	return bits ^ 0x80000000
}

func flipFloatBits64(bits uint64) uint64 {
	if bits&0x8000000000000000 != 0 {
		return ^bits
	}
	return bits ^ 0x8000000000000000
}

func packInt(v *big.Int, buf []byte) ([]byte, error) {
	switch v.Sign() {
	case 0:
		return append(buf, codeIntZero), nil
	case 1:
		n := byteLen(v)
		if n > maxIntBytes {
			return nil, &NotSupportedError{Value: v}
		}
		buf = append(buf, codeIntZero+byte(n))
		return appendBigEndian(buf, v, n), nil
	default:
		m := new(big.Int).Neg(v)
		n := byteLen(m)
		if n > maxIntBytes {
			return nil, &NotSupportedError{Value: v}
		}
		maxv := maxForBytes(n)
		stored := new(big.Int).Sub(maxv, m)
		buf = append(buf, codeIntZero-byte(n))
		return appendBigEndian(buf, stored, n), nil
	}
}

func byteLen(v *big.Int) int {
	bits := v.BitLen()
	n := (bits + 7) / 8
	if n == 0 {
		n = 1
	}
	return n
}

func maxForBytes(n int) *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
	return max.Sub(max, big.NewInt(1))
}

func appendBigEndian(buf []byte, v *big.Int, n int) []byte {
	b := v.Bytes()
	for i := 0; i < n-len(b); i++ {
		buf = append(buf, 0x00)
	}
	return append(buf, b...)
}

// PackWithVersionstamp computes the byte offset of the single incomplete
// Versionstamp element in t, packs prefix followed by t, and appends that
// offset as a little-endian uint32, producing the value expected by the
// set-versionstamped-key atomic mutation.
func PackWithVersionstamp(prefix []byte, t Tuple) ([]byte, error) {
	buf := append([]byte(nil), prefix...)
	offset := -1
	for _, el := range t {
		start := len(buf)
		var err error
		buf, err = packElement(el, buf, true)
		if err != nil {
			return nil, err
		}
		if el.kind == KindVersionstamp {
			vs, _ := el.AsVersionstamp()
			if vs.IsIncomplete() {
				if offset != -1 {
					return nil, &MultipleIncompleteVersionstampsError{Count: countIncomplete(t)}
				}
				offset = start + 1 // +1 to skip the type code byte
			}
		}
	}
	if offset == -1 {
		return nil, &NoIncompleteVersionstampError{}
	}
	off := uint32(offset)
	buf = append(buf, byte(off), byte(off>>8), byte(off>>16), byte(off>>24))
	return buf, nil
}

func countIncomplete(t Tuple) int {
	n := 0
	for _, el := range t {
		if el.kind == KindVersionstamp {
			vs, _ := el.AsVersionstamp()
			if vs.IsIncomplete() {
				n++
			}
		}
	}
	return n
}

// Unpack decodes b into a Tuple, failing with TrailingBytesError if any
// bytes remain after the last element.
func Unpack(b []byte) (Tuple, error) {
	t, rest, err := unpackSequence(b, true)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, &TrailingBytesError{Remaining: len(rest)}
	}
	return t, nil
}

// unpackSequence decodes elements from b until it is exhausted (topLevel)
// or a nested-tuple terminator 0x00 is found and consumed (!topLevel). It
// returns the decoded elements and any unconsumed bytes: for a nested tuple,
// the bytes after its terminator; at the top level, the bytes from an
// unknown type code that follows at least one complete element.
func unpackSequence(b []byte, topLevel bool) (Tuple, []byte, error) {
	var t Tuple
	for len(b) > 0 {
		if !topLevel && b[0] == codeNil && (len(b) == 1 || b[1] != 0xFF) {
			// terminator of the enclosing nested tuple
			return t, b[1:], nil
		}
		el, rest, err := unpackElement(b, topLevel)
		if err != nil {
			if bce, ok := err.(*BadCodeError); ok && topLevel && len(t) > 0 && bce.Found == b[0] {
				return t, b, nil
			}
			return nil, nil, err
		}
		t = append(t, el)
		b = rest
	}
	if !topLevel {
		return nil, nil, &MissingBytesError{Want: 1, Have: 0}
	}
	return t, b, nil
}

func unpackElement(b []byte, topLevel bool) (Element, []byte, error) {
	if len(b) == 0 {
		return Element{}, nil, &MissingBytesError{Want: 1, Have: 0}
	}
	code := b[0]
	switch {
	case code == codeNil:
		if topLevel {
			return Nil(), b[1:], nil
		}
		// escaped nil inside a nested tuple: 0x00 0xFF
		if len(b) < 2 || b[1] != 0xFF {
			return Element{}, nil, &BadCharValueError{Offset: 1}
		}
		return Nil(), b[2:], nil
	case code == codeBytes:
		payload, rest, err := unescapePayload(b[1:])
		if err != nil {
			return Element{}, nil, err
		}
		return Bytes(payload), rest, nil
	case code == codeString:
		payload, rest, err := unescapePayload(b[1:])
		if err != nil {
			return Element{}, nil, err
		}
		if !utf8.Valid(payload) {
			return Element{}, nil, &BadStringFormatError{Cause: &BadCharValueError{}}
		}
		return Str(string(payload)), rest, nil
	case code == codeNested:
		sub, rest, err := unpackSequence(b[1:], false)
		if err != nil {
			return Element{}, nil, err
		}
		return NestedTuple(sub), rest, nil
	case code == codeIntZero:
		return IntFromInt64(0), b[1:], nil
	case code >= codePosIntStart && code <= codePosIntEnd:
		n := int(code - codeIntZero)
		if len(b) < 1+n {
			return Element{}, nil, &MissingBytesError{Want: 1 + n, Have: len(b)}
		}
		magnitude := new(big.Int).SetBytes(b[1 : 1+n])
		return Int(magnitude), b[1+n:], nil
	case code >= codeNegIntStart && code < codeIntZero:
		n := int(codeIntZero - code)
		if len(b) < 1+n {
			return Element{}, nil, &MissingBytesError{Want: 1 + n, Have: len(b)}
		}
		stored := new(big.Int).SetBytes(b[1 : 1+n])
		magnitude := new(big.Int).Sub(maxForBytes(n), stored)
		return Int(new(big.Int).Neg(magnitude)), b[1+n:], nil
	case code == codeFloat:
		if len(b) < 5 {
			return Element{}, nil, &MissingBytesError{Want: 5, Have: len(b)}
		}
		bits := uint32(b[1])<<24 | uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4])
		bits = flipFloatBits32(bits)
		return Float32(math.Float32frombits(bits)), b[5:], nil
	case code == codeDouble:
		if len(b) < 9 {
			return Element{}, nil, &MissingBytesError{Want: 9, Have: len(b)}
		}
		var bits uint64
		for i := 1; i <= 8; i++ {
			bits = bits<<8 | uint64(b[i])
		}
		bits = flipFloatBits64(bits)
		return Float64(math.Float64frombits(bits)), b[9:], nil
	case code == codeFalse:
		return Bool(false), b[1:], nil
	case code == codeTrue:
		return Bool(true), b[1:], nil
	case code == codeUUID:
		if len(b) < 17 {
			return Element{}, nil, &MissingBytesError{Want: 17, Have: len(b)}
		}
		u, _ := uuid.FromBytes(b[1:17])
		return UUID(u), b[17:], nil
	case code == codeVersionstamp:
		if len(b) < 13 {
			return Element{}, nil, &MissingBytesError{Want: 13, Have: len(b)}
		}
		v, err := VersionstampFromBytes(b[1:13])
		if err != nil {
			return Element{}, nil, err
		}
		return VersionstampElement(v), b[13:], nil
	default:
		return Element{}, nil, &BadCodeError{Found: code}
	}
}

// unescapePayload reads a Bytes/String payload: bytes up to and including
// the first unescaped 0x00, translating 0x00 0xFF back to a literal 0x00.
func unescapePayload(b []byte) ([]byte, []byte, error) {
	var out []byte
	i := 0
	for {
		if i >= len(b) {
			return nil, nil, &MissingBytesError{Want: i + 1, Have: len(b)}
		}
		if b[i] == 0x00 {
			if i+1 < len(b) && b[i+1] == 0xFF {
				out = append(out, 0x00)
				i += 2
				continue
			}
			return out, b[i+1:], nil
		}
		out = append(out, b[i])
		i++
	}
}

// Range returns the begin/end key pair spanning every key that starts with
// Pack(t): begin = Pack(t) . 0x00, end = Pack(t) . 0xFF.
func Range(t Tuple) (begin, end []byte, err error) {
	p, err := Pack(t)
	if err != nil {
		return nil, nil, err
	}
	begin = append(append([]byte(nil), p...), 0x00)
	end = append(append([]byte(nil), p...), 0xFF)
	return begin, end, nil
}
