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

package directory

// Partition returns the DirectoryLayer rooted at d's own prefix, for
// callers that hold a DirectorySubspace known to be a partition (d.layer
// == "partition") and want to resolve paths relative to it directly,
// rather than through the DirectoryLayer that opened it. It is meaningless
// to call this on a directory that is not a partition; callers should
// check IsPartition first.
func (d *DirectorySubspace) Partition() *DirectoryLayer {
	return d.dl.partitionLayer(&node{
		exists: true,
		path:   d.path,
		prefix: d.Bytes(),
		layer:  d.layer,
	})
}
