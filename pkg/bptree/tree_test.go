package bptree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"bptreeidx/pkg/storage"
)

func openTestTree(t *testing.T) *Tree {
	t.Helper()
	pool := storage.NewBufferPool(256, 4096)
	tree, err := Open("test", pool, ByteComparator{}, Options{
		PageSize:        4096,
		KeySize:         8,
		ValueSize:       8,
		LeafMaxSize:     4,
		InternalMaxSize: 4,
	})
	require.NoError(t, err)
	return tree
}

func TestTree_EmptyOnOpen(t *testing.T) {
	tree := openTestTree(t)
	require.True(t, tree.IsEmpty())

	_, ok := tree.Get(key("missing"))
	require.False(t, ok)
}

func TestTree_InsertGetRoundTrip(t *testing.T) {
	tree := openTestTree(t)

	inserted, err := tree.Insert(key("a"), []byte("alpha"))
	require.NoError(t, err)
	require.True(t, inserted)

	v, ok := tree.Get(key("a"))
	require.True(t, ok)
	require.Equal(t, padTo([]byte("alpha"), 8), v)

	inserted, err = tree.Insert(key("a"), []byte("other"))
	require.NoError(t, err)
	require.False(t, inserted, "re-inserting an existing key must not overwrite it")
}

func TestTree_SplitsAcrossManyInserts(t *testing.T) {
	tree := openTestTree(t)

	const n = 200
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		inserted, err := tree.Insert(key(k), key(k))
		require.NoError(t, err)
		require.True(t, inserted)
	}
	require.False(t, tree.IsEmpty())

	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		v, ok := tree.Get(key(k))
		require.True(t, ok, "expected key %s to be present", k)
		require.Equal(t, key(k), v)
	}
}

func TestTree_RemoveShrinksBackToEmpty(t *testing.T) {
	tree := openTestTree(t)

	const n = 100
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		keys[i] = k
		_, err := tree.Insert(key(k), key(k))
		require.NoError(t, err)
	}

	for _, k := range keys {
		require.NoError(t, tree.Remove(key(k)))
	}

	require.True(t, tree.IsEmpty())
	for _, k := range keys {
		_, ok := tree.Get(key(k))
		require.False(t, ok)
	}
}

func TestTree_RemoveMissingKeyIsNotAnError(t *testing.T) {
	tree := openTestTree(t)
	require.NoError(t, tree.Remove(key("nope")))
}

func TestTree_RemoveInterleavedWithInsert(t *testing.T) {
	tree := openTestTree(t)

	for i := 0; i < 50; i++ {
		k := fmt.Sprintf("k%04d", i)
		_, err := tree.Insert(key(k), key(k))
		require.NoError(t, err)
	}
	for i := 0; i < 50; i += 2 {
		k := fmt.Sprintf("k%04d", i)
		require.NoError(t, tree.Remove(key(k)))
	}
	for i := 0; i < 50; i++ {
		k := fmt.Sprintf("k%04d", i)
		v, ok := tree.Get(key(k))
		if i%2 == 0 {
			require.False(t, ok, "key %s should have been removed", k)
		} else {
			require.True(t, ok, "key %s should still be present", k)
			require.Equal(t, key(k), v)
		}
	}
}
