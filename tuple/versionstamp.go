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

import "encoding/binary"

// Versionstamp is a 12-byte value assigned by the database at commit time:
// a 10-byte transaction version followed by a 2-byte user version that lets
// a client distinguish multiple stamps committed within the same
// transaction.
type Versionstamp struct {
	TransactionVersion [10]byte
	UserVersion        uint16
}

// incompleteTransactionVersion is the sentinel transaction version a client
// writes before commit; the database overwrites it with the real commit
// version.
var incompleteTransactionVersion = [10]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// IncompleteVersionstamp returns an incomplete Versionstamp carrying
// userVersion, suitable for use in a versionstamped-key or
// versionstamped-value atomic mutation.
func IncompleteVersionstamp(userVersion uint16) Versionstamp {
	return Versionstamp{TransactionVersion: incompleteTransactionVersion, UserVersion: userVersion}
}

// IsIncomplete reports whether v has not yet been assigned a transaction
// version by the database.
func (v Versionstamp) IsIncomplete() bool {
	return v.TransactionVersion == incompleteTransactionVersion
}

// Bytes returns the 12-byte wire representation: the 10-byte transaction
// version followed by the 2-byte big-endian user version.
func (v Versionstamp) Bytes() []byte {
	buf := make([]byte, 12)
	copy(buf[:10], v.TransactionVersion[:])
	binary.BigEndian.PutUint16(buf[10:], v.UserVersion)
	return buf
}

// VersionstampFromBytes parses the 12-byte wire representation produced by
// Bytes.
func VersionstampFromBytes(b []byte) (Versionstamp, error) {
	if len(b) != 12 {
		return Versionstamp{}, &BadVersionstampError{Reason: "expected 12 bytes"}
	}
	var v Versionstamp
	copy(v.TransactionVersion[:], b[:10])
	v.UserVersion = binary.BigEndian.Uint16(b[10:])
	return v, nil
}
