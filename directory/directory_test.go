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

package directory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdbkit/fdbkit/directory"
	"github.com/fdbkit/fdbkit/fdb"
	"github.com/fdbkit/fdbkit/fdbtest"
)

func newDB(t *testing.T) fdb.Database {
	t.Helper()
	return fdbtest.NewDatabase(fdbtest.NewStore())
}

func TestCreateOrOpen_CreatesMissingAndReopensExisting(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	v, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.CreateOrOpen(ctx, tr, []string{"app", "users"}, nil, []byte("users-v1"))
	})
	require.NoError(t, err)
	first := v.(*directory.DirectorySubspace)
	assert.Equal(t, []byte("users-v1"), first.GetLayer())
	assert.NotEmpty(t, first.Bytes())

	v, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.CreateOrOpen(ctx, tr, []string{"app", "users"}, nil, nil)
	})
	require.NoError(t, err)
	reopened := v.(*directory.DirectorySubspace)
	assert.Equal(t, first.Bytes(), reopened.Bytes())
}

func TestCreate_FailsIfAlreadyExists(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Create(ctx, tr, []string{"a"}, nil, nil)
	})
	require.NoError(t, err)

	_, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Create(ctx, tr, []string{"a"}, nil, nil)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, directory.ErrDirAlreadyExists)
}

func TestOpen_FailsIfMissing(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Open(ctx, tr, []string{"nope"}, nil)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, directory.ErrDirectoryDoesNotExists)
}

func TestOpen_IncompatibleLayer(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Create(ctx, tr, []string{"a"}, nil, []byte("layer-a"))
	})
	require.NoError(t, err)

	_, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Open(ctx, tr, []string{"a"}, []byte("layer-b"))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, directory.ErrIncompatibleLayer)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	v, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Exists(ctx, tr, []string{"a"})
	})
	require.NoError(t, err)
	assert.False(t, v.(bool))

	_, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.CreateOrOpen(ctx, tr, []string{"a"}, nil, nil)
	})
	require.NoError(t, err)

	v, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Exists(ctx, tr, []string{"a"})
	})
	require.NoError(t, err)
	assert.True(t, v.(bool))
}

func TestList_ReturnsChildrenInOrder(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
			return dl.CreateOrOpen(ctx, tr, []string{"root", name}, nil, nil)
		})
		require.NoError(t, err)
	}

	v, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.List(ctx, tr, []string{"root"})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, v.([]string))
}

func TestMoveTo(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.CreateOrOpen(ctx, tr, []string{"a", "b"}, nil, []byte("L"))
	})
	require.NoError(t, err)
	_, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.CreateOrOpen(ctx, tr, []string{"c"}, nil, nil)
	})
	require.NoError(t, err)

	v, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.MoveTo(ctx, tr, []string{"a", "b"}, []string{"c", "b"})
	})
	require.NoError(t, err)
	moved := v.(*directory.DirectorySubspace)
	assert.Equal(t, []byte("L"), moved.GetLayer())

	existsOld, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Exists(ctx, tr, []string{"a", "b"})
	})
	require.NoError(t, err)
	assert.False(t, existsOld.(bool))

	existsNew, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Exists(ctx, tr, []string{"c", "b"})
	})
	require.NoError(t, err)
	assert.True(t, existsNew.(bool))
}

func TestMoveTo_RejectsSubtreeMove(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.CreateOrOpen(ctx, tr, []string{"a"}, nil, nil)
	})
	require.NoError(t, err)

	_, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.MoveTo(ctx, tr, []string{"a"}, []string{"a", "child"})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, directory.ErrCannotMoveBetweenSubdirectory)
}

func TestMoveTo_RejectsExistingDestination(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	for _, p := range [][]string{{"a"}, {"b"}} {
		p := p
		_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
			return dl.CreateOrOpen(ctx, tr, p, nil, nil)
		})
		require.NoError(t, err)
	}

	_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.MoveTo(ctx, tr, []string{"a"}, []string{"b"})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, directory.ErrBadDestinationDirectory)
}

func TestRemove_DeletesSubtreeAndContent(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	var childPrefix []byte
	v, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		sub, err := dl.CreateOrOpen(ctx, tr, []string{"a", "b"}, nil, nil)
		if err != nil {
			return nil, err
		}
		tr.Set(append(append([]byte(nil), sub.Bytes()...), 0x01), []byte("payload"))
		return sub.Bytes(), nil
	})
	require.NoError(t, err)
	childPrefix = v.([]byte)
	require.NotEmpty(t, childPrefix)

	_, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return nil, dl.Remove(ctx, tr, []string{"a"})
	})
	require.NoError(t, err)

	v, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.Exists(ctx, tr, []string{"a"})
	})
	require.NoError(t, err)
	assert.False(t, v.(bool))

	v, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return tr.Get(ctx, append(append([]byte(nil), childPrefix...), 0x01), false)
	})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRemove_OfRootIsRejected(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return nil, dl.Remove(ctx, tr, nil)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, directory.ErrCannotModifyRootDirectory)
}

func TestRemoveIfExists(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	v, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.RemoveIfExists(ctx, tr, []string{"nope"})
	})
	require.NoError(t, err)
	assert.False(t, v.(bool))
}

func TestPartition_IsolatesChildNamespace(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	v, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.CreatePartition(ctx, tr, []string{"tenants", "acme"})
	})
	require.NoError(t, err)
	part := v.(*directory.DirectorySubspace)
	assert.True(t, part.IsPartition())

	v, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.CreateOrOpen(ctx, tr, []string{"tenants", "acme", "widgets"}, nil, nil)
	})
	require.NoError(t, err)
	widgets := v.(*directory.DirectorySubspace)
	assert.True(t, len(widgets.Bytes()) > 0)
	assert.True(t, part.Partition() != nil)

	// Resolving the same path directly through the partition handle finds
	// the same directory.
	v, err = db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return part.Partition().Open(ctx, tr, []string{"widgets"}, nil)
	})
	require.NoError(t, err)
	reopened := v.(*directory.DirectorySubspace)
	assert.Equal(t, widgets.Bytes(), reopened.Bytes())
}

func TestErrorsAreComparableWithErrorsIs(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	dl := directory.NewDirectoryLayer()

	_, err := db.Transact(ctx, func(ctx context.Context, tr fdb.Transaction) (any, error) {
		return dl.CreateOrOpen(ctx, tr, nil, nil, nil)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, directory.ErrNoPathProvided))
}
