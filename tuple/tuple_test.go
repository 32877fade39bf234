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

package tuple_test

import (
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdbkit/fdbkit/tuple"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b := make([]byte, len(s)/2)
	_, err := fmtSscanHex(s, b)
	require.NoError(t, err)
	return b
}

// fmtSscanHex decodes the hex string s into out, two hex digits per byte,
// by hand rather than through encoding/hex.
func fmtSscanHex(s string, out []byte) (int, error) {
	for i := range out {
		hi := hexDigit(s[2*i])
		lo := hexDigit(s[2*i+1])
		out[i] = hi<<4 | lo
	}
	return len(out), nil
}

func hexDigit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func TestPack_LiteralVectors(t *testing.T) {
	cases := []struct {
		name string
		in   tuple.Tuple
		want string
	}{
		{"string hello", tuple.Tuple{tuple.Str("hello")}, "0268656c6c6f00"},
		{"int -1", tuple.Tuple{tuple.IntFromInt64(-1)}, "13fe"},
		{"int 0", tuple.Tuple{tuple.IntFromInt64(0)}, "14"},
		{"int 256", tuple.Tuple{tuple.IntFromInt64(256)}, "160100"},
		{"float -42.0", tuple.Tuple{tuple.Float32(-42.0)}, "203dd7ffff"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := tuple.Pack(c.in)
			require.NoError(t, err)
			assert.Equal(t, hexBytes(t, c.want), got)
		})
	}
}

func TestPack_NestedTuple(t *testing.T) {
	// ("foo", nil, ("bar", nil))
	in := tuple.Tuple{
		tuple.Str("foo"),
		tuple.Nil(),
		tuple.NestedTuple(tuple.Tuple{tuple.Str("bar"), tuple.Nil()}),
	}
	got, err := tuple.Pack(in)
	require.NoError(t, err)

	// Hand-traced: 02 'f''o''o' 00 (string "foo") | 00 (nil) | 05 02 'b''a''r' 00 00 ff 00 (nested)
	expected := []byte{
		0x02, 'f', 'o', 'o', 0x00,
		0x00,
		0x05, 0x02, 'b', 'a', 'r', 0x00, 0x00, 0xFF, 0x00,
	}
	assert.Equal(t, expected, got)
}

func TestPackUnpack_RoundTrip(t *testing.T) {
	u := uuid.New()
	in := tuple.Tuple{
		tuple.Nil(),
		tuple.Bytes([]byte{0x01, 0x00, 0x02}),
		tuple.Str("hello, \x00 world"),
		tuple.IntFromInt64(-123456789),
		tuple.IntFromUint64(1 << 40),
		tuple.Float32(3.5),
		tuple.Float64(-2.25),
		tuple.Bool(true),
		tuple.Bool(false),
		tuple.UUID(u),
		tuple.NestedTuple(tuple.Tuple{tuple.IntFromInt64(1), tuple.Str("x")}),
	}
	packed, err := tuple.Pack(in)
	require.NoError(t, err)

	out, err := tuple.Unpack(packed)
	require.NoError(t, err)
	assert.True(t, in.Equal(out), "round-tripped tuple did not match original")
}

func TestPack_IntMagnitudeTooLarge(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	_, err := tuple.Pack(tuple.Tuple{tuple.Int(huge)})
	require.Error(t, err)
	var nse *tuple.NotSupportedError
	assert.ErrorAs(t, err, &nse)
}

func TestUnpack_TrailingBytes(t *testing.T) {
	packed, err := tuple.Pack(tuple.Tuple{tuple.IntFromInt64(0)})
	require.NoError(t, err)
	_, err = tuple.Unpack(append(packed, 0xAB))
	require.Error(t, err)
	var tbe *tuple.TrailingBytesError
	assert.ErrorAs(t, err, &tbe)
}

func TestUnpack_BadCode(t *testing.T) {
	_, err := tuple.Unpack([]byte{0x99})
	require.Error(t, err)
	var bce *tuple.BadCodeError
	assert.ErrorAs(t, err, &bce)
}

func TestOrdering_IntegersPreserveNumericOrder(t *testing.T) {
	values := []int64{-1000, -1, 0, 1, 255, 256, 65535, 65536}
	var packed [][]byte
	for _, v := range values {
		p, err := tuple.Pack(tuple.Tuple{tuple.IntFromInt64(v)})
		require.NoError(t, err)
		packed = append(packed, p)
	}
	for i := 1; i < len(packed); i++ {
		assert.True(t, lessBytes(packed[i-1], packed[i]), "packed(%d) should sort before packed(%d)", values[i-1], values[i])
	}
}

func lessBytes(a, b []byte) bool {
	return string(a) < string(b)
}

func TestPackWithVersionstamp(t *testing.T) {
	vs := tuple.IncompleteVersionstamp(657)
	t1 := tuple.Tuple{tuple.Str("x"), tuple.VersionstampElement(vs)}
	packed, err := tuple.PackWithVersionstamp([]byte{0xAB}, t1)
	require.NoError(t, err)
	// tail of the versionstamp element carries the user version 657 = 0x0291
	vsBytes := vs.Bytes()
	assert.Equal(t, byte(0x02), vsBytes[10])
	assert.Equal(t, byte(0x91), vsBytes[11])
	// last 4 bytes of the packed output are the little-endian offset trailer
	require.True(t, len(packed) >= 4)
}

func TestPackWithVersionstamp_RequiresExactlyOneIncomplete(t *testing.T) {
	_, err := tuple.PackWithVersionstamp(nil, tuple.Tuple{tuple.Str("x")})
	require.Error(t, err)
	var missing *tuple.NoIncompleteVersionstampError
	assert.ErrorAs(t, err, &missing)

	two := tuple.Tuple{
		tuple.VersionstampElement(tuple.IncompleteVersionstamp(0)),
		tuple.VersionstampElement(tuple.IncompleteVersionstamp(1)),
	}
	_, err = tuple.PackWithVersionstamp(nil, two)
	require.Error(t, err)
	var multi *tuple.MultipleIncompleteVersionstampsError
	assert.ErrorAs(t, err, &multi)
}

func TestRange(t *testing.T) {
	begin, end, err := tuple.Range(tuple.Tuple{tuple.Str("a")})
	require.NoError(t, err)
	packed, err := tuple.Pack(tuple.Tuple{tuple.Str("a")})
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte(nil), packed...), 0x00), begin)
	assert.Equal(t, append(append([]byte(nil), packed...), 0xFF), end)
}
