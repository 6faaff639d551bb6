package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferPool_NewAndFetch(t *testing.T) {
	pool := NewBufferPool(4, 128)

	frame, err := pool.NewPage()
	require.NoError(t, err)
	copy(frame.Data(), []byte("hello"))
	id := frame.ID()
	require.NoError(t, pool.UnpinPage(id, true))

	fetched, err := pool.FetchPage(id)
	require.NoError(t, err)
	require.Equal(t, byte('h'), fetched.Data()[0])
	require.NoError(t, pool.UnpinPage(id, false))
}

func TestBufferPool_EvictsUnpinnedPages(t *testing.T) {
	pool := NewBufferPool(2, 64)

	first, err := pool.NewPage()
	require.NoError(t, err)
	firstID := first.ID()
	copy(first.Data(), []byte("first"))
	require.NoError(t, pool.UnpinPage(firstID, true))

	second, err := pool.NewPage()
	require.NoError(t, err)
	require.NoError(t, pool.UnpinPage(second.ID(), false))

	// Pool is now full of unpinned pages; a third allocation must evict
	// one rather than fail.
	third, err := pool.NewPage()
	require.NoError(t, err)
	require.NoError(t, pool.UnpinPage(third.ID(), false))

	refetched, err := pool.FetchPage(firstID)
	require.NoError(t, err)
	require.Equal(t, byte('f'), refetched.Data()[0], "evicted page's content should survive the round trip")
	require.NoError(t, pool.UnpinPage(firstID, false))
}

func TestBufferPool_ExhaustionWhenAllPinned(t *testing.T) {
	pool := NewBufferPool(1, 64)

	frame, err := pool.NewPage()
	require.NoError(t, err)
	defer pool.UnpinPage(frame.ID(), false)

	_, err = pool.NewPage()
	require.Error(t, err, "allocating beyond capacity with every page pinned must fail")
}

func TestBufferPool_DeletePageRequiresUnpinned(t *testing.T) {
	pool := NewBufferPool(2, 64)

	frame, err := pool.NewPage()
	require.NoError(t, err)

	_, err = pool.DeletePage(frame.ID())
	require.Error(t, err)

	require.NoError(t, pool.UnpinPage(frame.ID(), false))
	ok, err := pool.DeletePage(frame.ID())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = pool.FetchPage(frame.ID())
	require.Error(t, err)
}

func TestFrame_ReleaseIsIdempotent(t *testing.T) {
	pool := NewBufferPool(2, 64)
	frame, err := pool.NewPage()
	require.NoError(t, err)

	frame.WLatch()
	frame.Release()
	require.NotPanics(t, frame.Release)
}
