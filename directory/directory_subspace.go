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

// layerPartition is the reserved layer label that turns a directory into a
// partition: everything below it is resolved against a fresh DirectoryLayer
// rooted at that directory's own prefix (see partitionLayer).
const layerPartition = "partition"

// DirectorySubspace is a handle returned by CreateOrOpen/Create/Open/MoveTo:
// a Subspace over the directory's allocated prefix, plus the metadata
// needed to call back into the DirectoryLayer that produced it (List,
// MoveTo, Remove all take a path relative to that layer).
type DirectorySubspace struct {
	subspace.Subspace

	layer []byte
	path  []string
	dl    *DirectoryLayer
}

// GetLayer returns the layer label this directory was created or opened
// with, or an empty slice if none was set.
func (d *DirectorySubspace) GetLayer() []byte { return d.layer }

// GetPath returns the path this directory was resolved at, relative to the
// DirectoryLayer (or partition) that produced it.
func (d *DirectorySubspace) GetPath() []string {
	return append([]string(nil), d.path...)
}

// IsPartition reports whether this directory's layer is the reserved
// "partition" label.
func (d *DirectorySubspace) IsPartition() bool {
	return string(d.layer) == layerPartition
}
