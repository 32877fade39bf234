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

// Package tuple implements the FoundationDB-compatible tuple encoding: a
// self-describing binary format whose lexicographic byte order matches a
// defined element order over a closed set of value kinds.
package tuple

import (
	"math/big"

	"github.com/google/uuid"
)

// Kind identifies which alternative of the Element sum type is populated.
// Values are ordered the way §4.1 orders element kinds, lowest first; this
// ordering is used only for documentation, the actual byte order comes from
// the type codes in codec.go.
type Kind int

const (
	KindNil Kind = iota
	KindBytes
	KindString
	KindTuple
	KindInt
	KindFloat32
	KindFloat64
	KindBool
	KindUUID
	KindVersionstamp
)

// Element is a tagged value: exactly one of the Kind-specific fields below
// is meaningful, selected by Kind(). It has value semantics; two Elements
// built from equal inputs compare equal with reflect.DeepEqual.
type Element struct {
	kind  Kind
	bytes []byte
	str   string
	tuple Tuple
	ival  *big.Int
	f32   float32
	f64   float64
	bval  bool
	uid   uuid.UUID
	vstamp Versionstamp
}

// Tuple is an ordered sequence of Elements. Tuples nest: an Element of
// KindTuple carries a Tuple value.
type Tuple []Element

func (e Element) Kind() Kind { return e.kind }

// Nil returns the Nil element.
func Nil() Element { return Element{kind: KindNil} }

// Bytes returns a Bytes element wrapping b. b is not copied.
func Bytes(b []byte) Element { return Element{kind: KindBytes, bytes: b} }

// Str returns a String element.
func Str(s string) Element { return Element{kind: KindString, str: s} }

// NestedTuple returns a Tuple element wrapping t.
func NestedTuple(t Tuple) Element { return Element{kind: KindTuple, tuple: t} }

// Int returns an Int element from an arbitrary-precision integer. The
// magnitude of v must fit in 8 bytes (the tuple format's practical range);
// Pack returns NotSupportedError if it does not.
func Int(v *big.Int) Element { return Element{kind: KindInt, ival: new(big.Int).Set(v)} }

// IntFromInt64 returns an Int element built from a native int64.
func IntFromInt64(v int64) Element { return Int(big.NewInt(v)) }

// IntFromUint64 returns an Int element built from a native uint64, able to
// represent magnitudes above math.MaxInt64.
func IntFromUint64(v uint64) Element { return Int(new(big.Int).SetUint64(v)) }

// Float32 returns a Float (IEEE-754 single precision) element.
func Float32(f float32) Element { return Element{kind: KindFloat32, f32: f} }

// Float64 returns a Double (IEEE-754 double precision) element.
func Float64(f float64) Element { return Element{kind: KindFloat64, f64: f} }

// Bool returns a Bool element.
func Bool(b bool) Element { return Element{kind: KindBool, bval: b} }

// UUID returns a Uuid element.
func UUID(u uuid.UUID) Element { return Element{kind: KindUUID, uid: u} }

// VersionstampElement returns a Versionstamp element.
func VersionstampElement(v Versionstamp) Element { return Element{kind: KindVersionstamp, vstamp: v} }

// AsBytes returns the wrapped byte string and true iff Kind() == KindBytes.
func (e Element) AsBytes() ([]byte, bool) {
	if e.kind != KindBytes {
		return nil, false
	}
	return e.bytes, true
}

// AsString returns the wrapped string and true iff Kind() == KindString.
func (e Element) AsString() (string, bool) {
	if e.kind != KindString {
		return "", false
	}
	return e.str, true
}

// AsTuple returns the nested tuple and true iff Kind() == KindTuple.
func (e Element) AsTuple() (Tuple, bool) {
	if e.kind != KindTuple {
		return nil, false
	}
	return e.tuple, true
}

// AsInt returns the wrapped integer and true iff Kind() == KindInt.
func (e Element) AsInt() (*big.Int, bool) {
	if e.kind != KindInt {
		return nil, false
	}
	return e.ival, true
}

// AsFloat32 returns the wrapped float and true iff Kind() == KindFloat32.
func (e Element) AsFloat32() (float32, bool) {
	if e.kind != KindFloat32 {
		return 0, false
	}
	return e.f32, true
}

// AsFloat64 returns the wrapped float and true iff Kind() == KindFloat64.
func (e Element) AsFloat64() (float64, bool) {
	if e.kind != KindFloat64 {
		return 0, false
	}
	return e.f64, true
}

// AsBool returns the wrapped bool and true iff Kind() == KindBool.
func (e Element) AsBool() (bool, bool) {
	if e.kind != KindBool {
		return false, false
	}
	return e.bval, true
}

// AsUUID returns the wrapped UUID and true iff Kind() == KindUUID.
func (e Element) AsUUID() (uuid.UUID, bool) {
	if e.kind != KindUUID {
		return uuid.UUID{}, false
	}
	return e.uid, true
}

// AsVersionstamp returns the wrapped Versionstamp and true iff
// Kind() == KindVersionstamp.
func (e Element) AsVersionstamp() (Versionstamp, bool) {
	if e.kind != KindVersionstamp {
		return Versionstamp{}, false
	}
	return e.vstamp, true
}

// Equal reports whether e and o represent the same value. Elements of
// different kinds are never equal, just as their distinct type codes in
// codec.go never encode to the same bytes.
func (e Element) Equal(o Element) bool {
	if e.kind != o.kind {
		return false
	}
	switch e.kind {
	case KindNil:
		return true
	case KindBytes:
		return string(e.bytes) == string(o.bytes)
	case KindString:
		return e.str == o.str
	case KindTuple:
		if len(e.tuple) != len(o.tuple) {
			return false
		}
		for i := range e.tuple {
			if !e.tuple[i].Equal(o.tuple[i]) {
				return false
			}
		}
		return true
	case KindInt:
		return e.ival.Cmp(o.ival) == 0
	case KindFloat32:
		return e.f32 == o.f32 || (isNaN32(e.f32) && isNaN32(o.f32))
	case KindFloat64:
		return e.f64 == o.f64 || (isNaN64(e.f64) && isNaN64(o.f64))
	case KindBool:
		return e.bval == o.bval
	case KindUUID:
		return e.uid == o.uid
	case KindVersionstamp:
		return e.vstamp == o.vstamp
	}
	return false
}

func isNaN32(f float32) bool { return f != f }
func isNaN64(f float64) bool { return f != f }

// Equal reports whether two tuples hold equal elements in the same order.
func (t Tuple) Equal(o Tuple) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if !t[i].Equal(o[i]) {
			return false
		}
	}
	return true
}
