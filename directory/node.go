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

import "github.com/fdbkit/fdbkit/subspace"

// node is a handle carrying a resolved directory node's prefix and
// metadata, populated on first touch by find. There is no in-process node
// graph beyond this value: the tree itself lives in the database as
// parent.pack((0, child_name)) edges (spec §9 "Self-referential node
// graph").
type node struct {
	// exists reports whether the node at path actually exists. When false,
	// path holds the longest existing ancestor prefix of the requested
	// path, not the requested path itself.
	exists bool

	// path is how much of the requested path this node represents: equal
	// to the full requested path on a complete resolution, the requested
	// path up to and including the partition on a partition boundary, and
	// shorter than it on a missing segment.
	path []string

	prefix           []byte
	layer            []byte
	metadataSubspace subspace.Subspace

	// partitionBoundary is true when exists is true, layer == "partition",
	// and the walk that produced this node stopped here because the
	// requested path continues past the partition; the caller must
	// re-resolve the rest of the requested path (from len(path) on)
	// against that partition's own
	// DirectoryLayer.
	partitionBoundary bool
}

func (n *node) isPartition() bool {
	return n.exists && string(n.layer) == layerPartition
}
