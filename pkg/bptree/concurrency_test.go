package bptree

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTree_ConcurrentInsertsAllLand(t *testing.T) {
	tree := openTestTree(t)

	const workers = 8
	const perWorker = 40

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				k := fmt.Sprintf("w%02d-%04d", w, i)
				_, err := tree.Insert(key(k), key(k))
				require.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			k := fmt.Sprintf("w%02d-%04d", w, i)
			v, ok := tree.Get(key(k))
			require.True(t, ok, "key %s missing after concurrent insert", k)
			require.Equal(t, key(k), v)
		}
	}
}

func TestTree_ConcurrentReadersDuringWrites(t *testing.T) {
	tree := openTestTree(t)
	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("k%04d", i)
		_, err := tree.Insert(key(k), key(k))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 100; i < 200; i++ {
			k := fmt.Sprintf("k%04d", i)
			_, err := tree.Insert(key(k), key(k))
			require.NoError(t, err)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			k := fmt.Sprintf("k%04d", i)
			_, ok := tree.Get(key(k))
			require.True(t, ok)
		}
	}()

	wg.Wait()
}
