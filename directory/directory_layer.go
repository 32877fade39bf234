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

// Package directory implements a hierarchical namespace of short key
// prefixes on top of the allocator and subspace packages: paths of string
// names are mapped to prefixes allocated by a High Contention Allocator, so
// application code can address a logical directory without hand-managing
// byte-string prefixes, and can move or remove whole subtrees by rewriting
// or clearing a single edge plus its descendants.
package directory

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/fdbkit/fdbkit/allocator"
	"github.com/fdbkit/fdbkit/fdb"
	"github.com/fdbkit/fdbkit/internal/log"
	"github.com/fdbkit/fdbkit/subspace"
	"github.com/fdbkit/fdbkit/tuple"
)

const (
	removeBatchSize = 1024

	versionMajor = 1
	versionMinor = 0
	versionPatch = 0
)

// Option configures a DirectoryLayer at construction time.
type Option func(*DirectoryLayer)

// WithNodeSubspace overrides the subspace used to store the node graph
// (edges and per-node metadata). Defaults to FromBytes([]byte{0xFE}).
func WithNodeSubspace(s subspace.Subspace) Option {
	return func(dl *DirectoryLayer) { dl.nodeSubspace = s }
}

// WithContentSubspace overrides the subspace new directories are allocated
// under. Defaults to subspace.All().
func WithContentSubspace(s subspace.Subspace) Option {
	return func(dl *DirectoryLayer) { dl.contentSubspace = s }
}

// WithAllowManualPrefixes permits callers to pass an explicit prefix to
// Create/CreateOrOpen instead of having one allocated. Defaults to false.
func WithAllowManualPrefixes(allow bool) Option {
	return func(dl *DirectoryLayer) { dl.allowManualPrefixes = allow }
}

// withPath records the absolute path this layer is rooted at, for layers
// constructed internally to resolve paths inside a partition.
func withPath(path []string) Option {
	return func(dl *DirectoryLayer) { dl.path = append([]string(nil), path...) }
}

// DirectoryLayer is the root of a directory namespace. The zero value is
// not usable; construct with NewDirectoryLayer.
type DirectoryLayer struct {
	nodeSubspace        subspace.Subspace
	contentSubspace     subspace.Subspace
	allowManualPrefixes bool
	path                []string // absolute path this layer is rooted at; nil at the top level

	rootNode subspace.Subspace
	alloc    *allocator.Allocator
}

// NewDirectoryLayer constructs a DirectoryLayer. With no options it uses
// the conventional defaults: node subspace prefix 0xFE, content subspace
// spanning the whole keyspace, manual prefixes disallowed.
func NewDirectoryLayer(opts ...Option) *DirectoryLayer {
	dl := &DirectoryLayer{
		nodeSubspace:    subspace.FromBytes([]byte{0xFE}),
		contentSubspace: subspace.All(),
	}
	for _, opt := range opts {
		opt(dl)
	}
	dl.rootNode = dl.nodeSubspace.MustSub(tuple.Tuple{tuple.Bytes(dl.nodeSubspace.Bytes())})
	dl.alloc = allocator.New(dl.rootNode.MustSub(tuple.Tuple{tuple.Str("hca")}))
	return dl
}

// Default is the conventional top-level DirectoryLayer most applications
// should use unless they need a non-standard node/content subspace.
var Default = NewDirectoryLayer()

func (dl *DirectoryLayer) nodeWithPrefix(prefix []byte) subspace.Subspace {
	return dl.nodeSubspace.MustSub(tuple.Tuple{tuple.Bytes(prefix)})
}

func (dl *DirectoryLayer) readLayer(ctx context.Context, tr fdb.Transaction, meta subspace.Subspace, snapshot bool) ([]byte, error) {
	key, err := meta.Pack(tuple.Tuple{tuple.Str("layer")})
	if err != nil {
		return nil, err
	}
	return tr.Get(ctx, key, snapshot)
}

// checkVersion reads the version stamp at the root node, initializing it on
// first write access and rejecting reads/writes from an incompatible
// client, per §4.5.3.
func (dl *DirectoryLayer) checkVersion(ctx context.Context, tr fdb.Transaction, writeAccess bool) error {
	key, err := dl.rootNode.Pack(tuple.Tuple{tuple.Str("version")})
	if err != nil {
		return err
	}
	val, err := tr.Get(ctx, key, false)
	if err != nil {
		return err
	}
	if val == nil {
		if !writeAccess {
			return nil
		}
		buf := make([]byte, 12)
		binary.LittleEndian.PutUint32(buf[0:4], versionMajor)
		binary.LittleEndian.PutUint32(buf[4:8], versionMinor)
		binary.LittleEndian.PutUint32(buf[8:12], versionPatch)
		tr.Set(key, buf)
		return nil
	}
	if len(val) != 12 {
		return errVersion("version metadata has the wrong length")
	}
	major := binary.LittleEndian.Uint32(val[0:4])
	minor := binary.LittleEndian.Uint32(val[4:8])
	patch := binary.LittleEndian.Uint32(val[8:12])
	if major > versionMajor {
		return errVersion(fmt.Sprintf("cannot access directory with unsupported version %d.%d.%d", major, minor, patch))
	}
	if minor > versionMinor && writeAccess {
		return errVersion(fmt.Sprintf("cannot write to directory with newer minor version %d.%d.%d", major, minor, patch))
	}
	return nil
}

// find walks path from the root node, one edge at a time, stopping early
// either because a segment is missing or because it crossed into a
// partition with path remaining. See node's doc comment for how to read the
// result.
func (dl *DirectoryLayer) find(ctx context.Context, tr fdb.Transaction, path []string, snapshot bool) (*node, error) {
	current := dl.rootNode
	n := &node{exists: true, metadataSubspace: dl.rootNode}
	for i, name := range path {
		key, err := current.Pack(tuple.Tuple{tuple.IntFromInt64(0), tuple.Str(name)})
		if err != nil {
			return nil, err
		}
		val, err := tr.Get(ctx, key, snapshot)
		if err != nil {
			return nil, err
		}
		if val == nil {
			return &node{exists: false, path: append([]string(nil), path[:i]...)}, nil
		}
		meta := dl.nodeWithPrefix(val)
		layer, err := dl.readLayer(ctx, tr, meta, snapshot)
		if err != nil {
			return nil, err
		}
		n = &node{
			exists:           true,
			path:             append([]string(nil), path[:i+1]...),
			prefix:           val,
			layer:            layer,
			metadataSubspace: meta,
		}
		if string(layer) == layerPartition && i+1 < len(path) {
			n.partitionBoundary = true
			return n, nil
		}
		current = meta
	}
	return n, nil
}

// partitionLayer instantiates the DirectoryLayer rooted inside the
// partition node n, per §4.5.1: node subspace P.0xFE, content subspace P.
func (dl *DirectoryLayer) partitionLayer(n *node) *DirectoryLayer {
	innerNode := subspace.FromBytes(append(append([]byte(nil), n.prefix...), 0xFE))
	innerContent := subspace.FromBytes(n.prefix)
	absPath := append(append([]string(nil), dl.path...), n.path...)
	return NewDirectoryLayer(WithNodeSubspace(innerNode), WithContentSubspace(innerContent), withPath(absPath))
}

func (dl *DirectoryLayer) contentsOfNode(n *node, path []string, layer []byte) *DirectorySubspace {
	return &DirectorySubspace{
		Subspace: subspace.FromBytes(n.prefix),
		layer:    append([]byte(nil), layer...),
		path:     append([]string(nil), path...),
		dl:       dl,
	}
}

// isPrefixFree reports whether prefix is not, and is not a prefix of, any
// existing node's prefix: a reverse scan up to prefix checks containment
// from below, a forward scan over [prefix, strinc(prefix)) checks for
// existing nodes nested under it.
func (dl *DirectoryLayer) isPrefixFree(ctx context.Context, tr fdb.Transaction, prefix []byte, snapshot bool) (bool, error) {
	if len(prefix) == 0 {
		return false, nil
	}
	nodeBegin, _ := dl.nodeSubspace.Range()
	upperBound, err := dl.nodeSubspace.Pack(tuple.Tuple{tuple.Bytes(prefix)})
	if err != nil {
		return false, err
	}
	upperBound = append(upperBound, 0x00)

	below, err := tr.GetRange(ctx, fdb.RangeOptions{
		Begin:   fdb.FirstGreaterOrEqual(nodeBegin),
		End:     fdb.FirstGreaterOrEqual(upperBound),
		Limit:   1,
		Reverse: true,
	}, snapshot)
	if err != nil {
		return false, err
	}
	if len(below.KeyValues) > 0 {
		t, err := dl.nodeSubspace.Unpack(below.KeyValues[0].Key)
		if err == nil && len(t) >= 1 {
			if existing, ok := t[0].AsBytes(); ok && bytes.HasPrefix(prefix, existing) {
				return false, nil
			}
		}
	}

	strincPrefix, err := subspace.StrInc(prefix)
	if err != nil {
		return false, err
	}
	forwardBegin, err := dl.nodeSubspace.Pack(tuple.Tuple{tuple.Bytes(prefix)})
	if err != nil {
		return false, err
	}
	forwardEnd, err := dl.nodeSubspace.Pack(tuple.Tuple{tuple.Bytes(strincPrefix)})
	if err != nil {
		return false, err
	}
	above, err := tr.GetRange(ctx, fdb.RangeOptions{
		Begin: fdb.FirstGreaterOrEqual(forwardBegin),
		End:   fdb.FirstGreaterOrEqual(forwardEnd),
		Limit: 1,
	}, snapshot)
	if err != nil {
		return false, err
	}
	return len(above.KeyValues) == 0, nil
}

// allocatePrefix allocates an integer via the HCA and verifies the content
// range it maps to is empty before handing it back, retrying on the rare
// occasion a manually-assigned prefix already occupies it.
func (dl *DirectoryLayer) allocatePrefix(ctx context.Context, tr fdb.Transaction) ([]byte, error) {
	const maxAttempts = 100
	for attempt := 0; attempt < maxAttempts; attempt++ {
		n, err := dl.alloc.Allocate(ctx, tr)
		if err != nil {
			return nil, err
		}
		prefix, err := allocator.CandidateKey(dl.contentSubspace, n)
		if err != nil {
			return nil, err
		}
		begin, end := subspace.FromBytes(prefix).Range()
		page, err := tr.GetRange(ctx, fdb.RangeOptions{
			Begin: fdb.FirstGreaterOrEqual(begin),
			End:   fdb.FirstGreaterOrEqual(end),
			Limit: 1,
		}, false)
		if err != nil {
			return nil, err
		}
		if len(page.KeyValues) == 0 {
			return prefix, nil
		}
		log.Get().Debugw("directory: allocated prefix already occupied, retrying", "attempt", attempt)
	}
	return nil, errDirectoryPrefixInUse(nil)
}

// createOrOpenInternal implements CreateOrOpen, Create and Open: allowCreate
// and allowOpen select which of those three this call is.
func (dl *DirectoryLayer) createOrOpenInternal(ctx context.Context, tr fdb.Transaction, path []string, prefix, layer []byte, allowCreate, allowOpen bool) (*DirectorySubspace, error) {
	if len(path) == 0 {
		return nil, ErrNoPathProvided
	}
	if err := dl.checkVersion(ctx, tr, allowCreate); err != nil {
		return nil, err
	}

	n, err := dl.find(ctx, tr, path, false)
	if err != nil {
		return nil, err
	}

	if n.partitionBoundary {
		part := dl.partitionLayer(n)
		return part.createOrOpenInternal(ctx, tr, path[len(n.path):], prefix, layer, allowCreate, allowOpen)
	}

	if n.exists && len(n.path) == len(path) {
		if !allowOpen {
			return nil, errDirAlreadyExists(path)
		}
		if len(layer) > 0 && n.layer != nil && !bytes.Equal(layer, n.layer) {
			return nil, errIncompatibleLayer(string(layer), string(n.layer))
		}
		effectiveLayer := n.layer
		if len(effectiveLayer) == 0 {
			effectiveLayer = layer
		}
		return dl.contentsOfNode(n, path, effectiveLayer), nil
	}

	if !allowCreate {
		return nil, errDirectoryDoesNotExists(path)
	}

	var newPrefix []byte
	if len(prefix) == 0 {
		newPrefix, err = dl.allocatePrefix(ctx, tr)
		if err != nil {
			return nil, err
		}
	} else {
		if len(dl.path) > 0 {
			return nil, ErrCannotPrefixInPartition
		}
		if !dl.allowManualPrefixes {
			return nil, ErrPrefixNotAllowed
		}
		free, err := dl.isPrefixFree(ctx, tr, prefix, false)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, errDirectoryPrefixInUse(prefix)
		}
		newPrefix = append([]byte(nil), prefix...)
	}

	parentPath := path[:len(path)-1]
	var parentSub subspace.Subspace
	if len(parentPath) == 0 {
		parentSub = dl.rootNode
	} else {
		parentDir, err := dl.createOrOpenInternal(ctx, tr, parentPath, nil, nil, true, true)
		if err != nil {
			return nil, err
		}
		parentSub = dl.nodeWithPrefix(parentDir.Bytes())
	}

	lastName := path[len(path)-1]
	edgeKey, err := parentSub.Pack(tuple.Tuple{tuple.IntFromInt64(0), tuple.Str(lastName)})
	if err != nil {
		return nil, err
	}
	tr.Set(edgeKey, newPrefix)

	meta := dl.nodeWithPrefix(newPrefix)
	layerKey, err := meta.Pack(tuple.Tuple{tuple.Str("layer")})
	if err != nil {
		return nil, err
	}
	tr.Set(layerKey, append([]byte(nil), layer...))

	return &DirectorySubspace{
		Subspace: subspace.FromBytes(newPrefix),
		layer:    append([]byte(nil), layer...),
		path:     append([]string(nil), path...),
		dl:       dl,
	}, nil
}

// CreateOrOpen opens path, creating it and any missing ancestors (with no
// layer) if it does not already exist. prefix, if non-empty, must be an
// explicit prefix to assign on creation (requires WithAllowManualPrefixes);
// pass nil to have one allocated. layer, if non-empty, is checked against
// an existing directory's stored layer and stored for a newly created one.
func (dl *DirectoryLayer) CreateOrOpen(ctx context.Context, tr fdb.Transaction, path []string, prefix, layer []byte) (*DirectorySubspace, error) {
	return dl.createOrOpenInternal(ctx, tr, path, prefix, layer, true, true)
}

// Create is CreateOrOpen but fails with DirAlreadyExists if path already
// exists.
func (dl *DirectoryLayer) Create(ctx context.Context, tr fdb.Transaction, path []string, prefix, layer []byte) (*DirectorySubspace, error) {
	return dl.createOrOpenInternal(ctx, tr, path, prefix, layer, true, false)
}

// Open is CreateOrOpen but fails with DirectoryDoesNotExists instead of
// creating a missing path.
func (dl *DirectoryLayer) Open(ctx context.Context, tr fdb.Transaction, path []string, layer []byte) (*DirectorySubspace, error) {
	return dl.createOrOpenInternal(ctx, tr, path, nil, layer, false, true)
}

// Exists reports whether path names a directory.
func (dl *DirectoryLayer) Exists(ctx context.Context, tr fdb.Transaction, path []string) (bool, error) {
	if err := dl.checkVersion(ctx, tr, false); err != nil {
		return false, err
	}
	if len(path) == 0 {
		return true, nil
	}
	n, err := dl.find(ctx, tr, path, false)
	if err != nil {
		return false, err
	}
	if n.partitionBoundary {
		part := dl.partitionLayer(n)
		return part.Exists(ctx, tr, path[len(n.path):])
	}
	return n.exists && len(n.path) == len(path), nil
}

// subdirNames returns the child names recorded directly under meta, in key
// (and therefore name) order.
func (dl *DirectoryLayer) subdirNames(ctx context.Context, tr fdb.Transaction, meta subspace.Subspace) ([]string, error) {
	edgeSub := meta.MustSub(tuple.Tuple{tuple.IntFromInt64(0)})
	begin, end := edgeSub.Range()
	stream := tr.GetRanges(ctx, fdb.RangeOptions{
		Begin: fdb.FirstGreaterOrEqual(begin),
		End:   fdb.FirstGreaterOrEqual(end),
		Mode:  fdb.StreamingModeWantAll,
	}, false)
	var names []string
	for {
		page, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for _, kv := range page.KeyValues {
			t, err := edgeSub.Unpack(kv.Key)
			if err != nil {
				return nil, err
			}
			if len(t) != 1 {
				continue
			}
			if name, ok := t[0].AsString(); ok {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// List returns the names of path's immediate children, in name order.
func (dl *DirectoryLayer) List(ctx context.Context, tr fdb.Transaction, path []string) ([]string, error) {
	if err := dl.checkVersion(ctx, tr, false); err != nil {
		return nil, err
	}
	n, err := dl.find(ctx, tr, path, false)
	if err != nil {
		return nil, err
	}
	if n.partitionBoundary {
		part := dl.partitionLayer(n)
		return part.List(ctx, tr, path[len(n.path):])
	}
	if len(path) > 0 && (!n.exists || len(n.path) != len(path)) {
		return nil, errDirectoryDoesNotExists(path)
	}
	meta := n.metadataSubspace
	if len(path) == 0 {
		meta = dl.rootNode
	}
	return dl.subdirNames(ctx, tr, meta)
}

func isStrictSubPath(ancestor, descendant []string) bool {
	if len(descendant) <= len(ancestor) {
		return false
	}
	for i := range ancestor {
		if ancestor[i] != descendant[i] {
			return false
		}
	}
	return true
}

// MoveTo moves the directory at oldPath to newPath, both relative to this
// DirectoryLayer. Both endpoints must resolve within the same layer (moving
// across a partition boundary is not supported); the new parent must
// already exist, and nothing may already occupy newPath.
func (dl *DirectoryLayer) MoveTo(ctx context.Context, tr fdb.Transaction, oldPath, newPath []string) (*DirectorySubspace, error) {
	if len(oldPath) == 0 || len(newPath) == 0 {
		return nil, ErrCannotMoveRootDirectory
	}
	if isStrictSubPath(oldPath, newPath) {
		return nil, ErrCannotMoveBetweenSubdirectory
	}
	if err := dl.checkVersion(ctx, tr, true); err != nil {
		return nil, err
	}

	oldNode, err := dl.find(ctx, tr, oldPath, false)
	if err != nil {
		return nil, err
	}
	if oldNode.partitionBoundary || !oldNode.exists || len(oldNode.path) != len(oldPath) {
		if oldNode.partitionBoundary {
			return nil, ErrCannotMoveBetweenPartition
		}
		return nil, errPathDoesNotExists(oldPath)
	}

	newNode, err := dl.find(ctx, tr, newPath, false)
	if err != nil {
		return nil, err
	}
	if newNode.partitionBoundary {
		return nil, ErrCannotMoveBetweenPartition
	}
	if newNode.exists && len(newNode.path) == len(newPath) {
		return nil, ErrBadDestinationDirectory
	}

	newParentPath := newPath[:len(newPath)-1]
	var newParentSub subspace.Subspace
	if len(newParentPath) == 0 {
		newParentSub = dl.rootNode
	} else {
		parentNode, err := dl.find(ctx, tr, newParentPath, false)
		if err != nil {
			return nil, err
		}
		if !parentNode.exists || len(parentNode.path) != len(newParentPath) {
			return nil, errParentDirDoesNotExists(newParentPath)
		}
		newParentSub = parentNode.metadataSubspace
	}

	oldParentPath := oldPath[:len(oldPath)-1]
	var oldParentSub subspace.Subspace
	if len(oldParentPath) == 0 {
		oldParentSub = dl.rootNode
	} else {
		parentNode, err := dl.find(ctx, tr, oldParentPath, false)
		if err != nil {
			return nil, err
		}
		oldParentSub = parentNode.metadataSubspace
	}

	oldEdgeKey, err := oldParentSub.Pack(tuple.Tuple{tuple.IntFromInt64(0), tuple.Str(oldPath[len(oldPath)-1])})
	if err != nil {
		return nil, err
	}
	newEdgeKey, err := newParentSub.Pack(tuple.Tuple{tuple.IntFromInt64(0), tuple.Str(newPath[len(newPath)-1])})
	if err != nil {
		return nil, err
	}
	tr.Set(newEdgeKey, oldNode.prefix)
	tr.Clear(oldEdgeKey)

	return dl.contentsOfNode(oldNode, newPath, oldNode.layer), nil
}

// removeRecursive clears n's own content range and metadata subspace after
// first recursing into every child edge it owns, in batches of
// removeBatchSize.
func (dl *DirectoryLayer) removeRecursive(ctx context.Context, tr fdb.Transaction, n *node) error {
	edgeSub := n.metadataSubspace.MustSub(tuple.Tuple{tuple.IntFromInt64(0)})
	begin, end := edgeSub.Range()
	stream := tr.GetRanges(ctx, fdb.RangeOptions{
		Begin: fdb.FirstGreaterOrEqual(begin),
		End:   fdb.FirstGreaterOrEqual(end),
		Limit: removeBatchSize,
		Mode:  fdb.StreamingModeIterator,
	}, false)
	for {
		page, ok, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		for _, kv := range page.KeyValues {
			childPrefix := kv.Value
			childMeta := dl.nodeWithPrefix(childPrefix)
			childLayer, err := dl.readLayer(ctx, tr, childMeta, false)
			if err != nil {
				return err
			}
			child := &node{exists: true, prefix: childPrefix, layer: childLayer, metadataSubspace: childMeta}
			if err := dl.removeRecursive(ctx, tr, child); err != nil {
				return err
			}
		}
	}

	if len(n.prefix) > 0 {
		strincPrefix, err := subspace.StrInc(n.prefix)
		if err != nil {
			return err
		}
		tr.ClearRange(n.prefix, strincPrefix)
	}
	metaBegin, metaEnd := n.metadataSubspace.Range()
	tr.ClearRange(metaBegin, metaEnd)
	return nil
}

// Remove deletes the directory at path and everything below it, including
// its allocated content range, failing with DirectoryDoesNotExists if path
// does not name a directory.
func (dl *DirectoryLayer) Remove(ctx context.Context, tr fdb.Transaction, path []string) error {
	if len(path) == 0 {
		return ErrCannotModifyRootDirectory
	}
	if err := dl.checkVersion(ctx, tr, true); err != nil {
		return err
	}

	n, err := dl.find(ctx, tr, path, false)
	if err != nil {
		return err
	}
	if n.partitionBoundary {
		part := dl.partitionLayer(n)
		return part.Remove(ctx, tr, path[len(n.path):])
	}
	if !n.exists || len(n.path) != len(path) {
		return errDirectoryDoesNotExists(path)
	}

	if err := dl.removeRecursive(ctx, tr, n); err != nil {
		return err
	}

	parentPath := path[:len(path)-1]
	var parentSub subspace.Subspace
	if len(parentPath) == 0 {
		parentSub = dl.rootNode
	} else {
		parentNode, err := dl.find(ctx, tr, parentPath, false)
		if err != nil {
			return err
		}
		parentSub = parentNode.metadataSubspace
	}
	edgeKey, err := parentSub.Pack(tuple.Tuple{tuple.IntFromInt64(0), tuple.Str(path[len(path)-1])})
	if err != nil {
		return err
	}
	tr.Clear(edgeKey)
	return nil
}

// RemoveIfExists is Remove but reports (false, nil) instead of an error
// when path does not exist.
func (dl *DirectoryLayer) RemoveIfExists(ctx context.Context, tr fdb.Transaction, path []string) (bool, error) {
	exists, err := dl.Exists(ctx, tr, path)
	if err != nil || !exists {
		return false, err
	}
	if err := dl.Remove(ctx, tr, path); err != nil {
		return false, err
	}
	return true, nil
}

// CreatePartition creates path as a partition: a directory whose
// descendants are resolved against a fresh DirectoryLayer scoped to its own
// prefix, isolating it from its parent's node subspace.
func (dl *DirectoryLayer) CreatePartition(ctx context.Context, tr fdb.Transaction, path []string) (*DirectorySubspace, error) {
	return dl.Create(ctx, tr, path, nil, []byte(layerPartition))
}
