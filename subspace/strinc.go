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

package subspace

import (
	"errors"
)

// StrInc returns the smallest byte string greater than every string with
// prefix b, by trimming trailing 0xFF bytes and incrementing the last
// remaining byte. It is used to build an exclusive range end from a prefix
// ("everything starting with b"). StrInc returns an error if b is empty or
// consists entirely of 0xFF bytes (there is no such key).
func StrInc(b []byte) ([]byte, error) {
	i := len(b) - 1
	for i >= 0 && b[i] == 0xFF {
		i--
	}
	if i < 0 {
		return nil, errors.New("subspace: cannot increment key consisting entirely of 0xFF bytes")
	}
	out := append([]byte(nil), b[:i+1]...)
	out[i]++
	return out, nil
}

// PrefixRange returns the [begin, end) pair covering every key prefixed by
// b, using StrInc for the exclusive end.
func PrefixRange(b []byte) (begin, end []byte, err error) {
	end, err = StrInc(b)
	if err != nil {
		return nil, nil, err
	}
	return append([]byte(nil), b...), end, nil
}
