package bptree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterator_WalksInOrder(t *testing.T) {
	tree := openTestTree(t)

	const n = 60
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%04d", i)
		_, err := tree.Insert(key(k), key(k))
		require.NoError(t, err)
	}

	it := tree.Begin()
	defer it.Close()

	count := 0
	var prev []byte
	for !it.Done() {
		k := it.Key()
		if prev != nil {
			require.Equal(t, -1, ByteComparator{}.Compare(prev, k), "keys must come out strictly increasing")
		}
		prev = append([]byte(nil), k...)
		count++
		it.Next()
	}
	require.Equal(t, n, count)
}

func TestIterator_BeginAtSeeksForward(t *testing.T) {
	tree := openTestTree(t)

	for i := 0; i < 20; i++ {
		k := fmt.Sprintf("k%04d", i)
		_, err := tree.Insert(key(k), key(k))
		require.NoError(t, err)
	}

	it := tree.BeginAt(key("k0010"))
	defer it.Close()

	require.False(t, it.Done())
	require.Equal(t, key("k0010"), it.Key())
}

func TestIterator_EmptyTreeIsImmediatelyDone(t *testing.T) {
	tree := openTestTree(t)
	it := tree.Begin()
	require.True(t, it.Done())
}
