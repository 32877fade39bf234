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

package subspace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdbkit/fdbkit/subspace"
)

func TestStrInc(t *testing.T) {
	got, err := subspace.StrInc([]byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x03}, got)

	got, err = subspace.StrInc([]byte{0x01, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, got)
}

func TestStrInc_AllFF(t *testing.T) {
	_, err := subspace.StrInc([]byte{0xFF, 0xFF})
	require.Error(t, err)
}

func TestPrefixRange(t *testing.T) {
	begin, end, err := subspace.PrefixRange([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), begin)
	assert.Equal(t, []byte("abd"), end)
}
