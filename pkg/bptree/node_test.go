package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bptreeidx/pkg/storage"
)

func testOpts() Options {
	return Options{
		PageSize:        4096,
		KeySize:         8,
		ValueSize:       8,
		LeafMaxSize:     4,
		InternalMaxSize: 4,
	}
}

func newTestPool(t *testing.T) *storage.BufferPool {
	t.Helper()
	return storage.NewBufferPool(64, 4096)
}

func key(s string) []byte { return padTo([]byte(s), 8) }

func TestLeaf_InsertLookupRemove(t *testing.T) {
	pool := newTestPool(t)
	frame, err := pool.NewPage()
	require.NoError(t, err)
	defer frame.Release()

	leaf := newLeaf(frame, testOpts())
	cmp := ByteComparator{}

	require.True(t, leaf.InsertLeaf(key("b"), []byte("2222222"), cmp))
	require.True(t, leaf.InsertLeaf(key("a"), []byte("1111111"), cmp))
	require.True(t, leaf.InsertLeaf(key("c"), []byte("3333333"), cmp))
	require.False(t, leaf.InsertLeaf(key("b"), []byte("zzzzzzz"), cmp), "duplicate key must be rejected")

	require.Equal(t, 3, leaf.Size())
	require.Equal(t, key("a"), leaf.KeyAt(0))
	require.Equal(t, key("b"), leaf.KeyAt(1))
	require.Equal(t, key("c"), leaf.KeyAt(2))

	v, ok := leaf.Lookup(key("b"), cmp)
	require.True(t, ok)
	require.Equal(t, padTo([]byte("2222222"), 8), v)

	_, ok = leaf.Lookup(key("z"), cmp)
	require.False(t, ok)

	require.True(t, leaf.RemoveLeaf(key("b"), cmp))
	require.False(t, leaf.RemoveLeaf(key("b"), cmp))
	require.Equal(t, 2, leaf.Size())
	require.Equal(t, key("c"), leaf.KeyAt(1))
}

func TestLeaf_OverflowsPastMaxSize(t *testing.T) {
	pool := newTestPool(t)
	frame, err := pool.NewPage()
	require.NoError(t, err)
	defer frame.Release()

	opts := testOpts()
	leaf := newLeaf(frame, opts)
	cmp := ByteComparator{}

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.True(t, leaf.InsertLeaf(key(k), key(k), cmp))
	}

	require.Equal(t, opts.LeafMaxSize+1, leaf.Size())
	require.True(t, leaf.IsFull())
}

func TestInternal_ChildForAndInsert(t *testing.T) {
	pool := newTestPool(t)
	frame, err := pool.NewPage()
	require.NoError(t, err)
	defer frame.Release()

	opts := testOpts()
	internal := newInternal(frame, opts)
	cmp := ByteComparator{}

	internal.SetFirstChild(storage.PageID(1))
	require.True(t, internal.InsertInternal(key("m"), storage.PageID(2), cmp))
	require.True(t, internal.InsertInternal(key("t"), storage.PageID(3), cmp))

	require.Equal(t, storage.PageID(1), internal.ChildFor(key("a"), cmp))
	require.Equal(t, storage.PageID(2), internal.ChildFor(key("m"), cmp))
	require.Equal(t, storage.PageID(2), internal.ChildFor(key("q"), cmp))
	require.Equal(t, storage.PageID(3), internal.ChildFor(key("z"), cmp))

	require.Equal(t, 1, internal.IndexOfChild(storage.PageID(2)))
	require.Equal(t, -1, internal.IndexOfChild(storage.PageID(99)))
}
