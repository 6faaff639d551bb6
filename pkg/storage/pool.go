package storage

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"bptreeidx/pkg/customerrors"
	"bptreeidx/util/logger"
)

var log = logger.Component("storage")

// BufferPool is the Page Store the B+ tree is built against: a
// capacity-bounded set of resident page frames, each with a pin count and
// a per-page read-write latch. Pages evicted to make room for a fetch are
// spilled into an in-memory backing store rather than a file, since
// durability across process restarts is out of this spec's scope
// (Non-goals: WAL/recovery); everything else about pin/unpin/latch
// discipline behaves as it would over real file I/O.
type BufferPool struct {
	mu       sync.Mutex
	pageSize int
	capacity int
	frames   map[PageID]*Page
	disk     map[PageID][]byte
	replacer *Replacer
	nextID   int64
}

func NewBufferPool(capacity, pageSize int) *BufferPool {
	return &BufferPool{
		pageSize: pageSize,
		capacity: capacity,
		frames:   make(map[PageID]*Page, capacity),
		disk:     make(map[PageID][]byte),
		replacer: newReplacer(capacity),
	}
}

func (bp *BufferPool) PageSize() int { return bp.pageSize }

// NewPage allocates a fresh page id, pins it, and returns a zero-filled
// frame for it. The caller is responsible for latching before writing and
// releasing the frame exactly once.
func (bp *BufferPool) NewPage() (*Frame, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if err := bp.ensureFreeFrameLocked(); err != nil {
		log.WithError(err).Error("failed to allocate new page")
		return nil, err
	}

	id := PageID(atomic.AddInt64(&bp.nextID, 1) - 1)
	p := newPage(id, bp.pageSize)
	p.pinCount = 1
	p.dirty = 1
	bp.frames[id] = p

	log.WithField("page_id", id).Debug("allocated new page")
	return &Frame{pool: bp, page: p}, nil
}

// FetchPage pins the page with the given id, loading it from the backing
// store into a frame if it isn't already resident. Blocks (via the pool
// mutex) if another fetch/unpin is in flight, and may need to evict an
// unpinned page to make room.
func (bp *BufferPool) FetchPage(id PageID) (*Frame, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if p, ok := bp.frames[id]; ok {
		atomic.AddInt32(&p.pinCount, 1)
		bp.replacer.MarkPinned(id)
		return &Frame{pool: bp, page: p}, nil
	}

	data, onDisk := bp.disk[id]
	if !onDisk {
		return nil, errors.Wrapf(customerrors.ErrPageNotFound, "page %d", id)
	}

	if err := bp.ensureFreeFrameLocked(); err != nil {
		log.WithError(err).WithField("page_id", id).Error("failed to fetch page")
		return nil, err
	}

	p := newPage(id, bp.pageSize)
	copy(p.data, data)
	p.pinCount = 1
	bp.frames[id] = p

	return &Frame{pool: bp, page: p}, nil
}

// UnpinPage decrements the pin count of a resident page, optionally
// marking it dirty. Once the pin count reaches zero the page becomes
// eligible for eviction. Prefer Frame.Release, which pairs this with
// releasing the frame's latch.
func (bp *BufferPool) UnpinPage(id PageID, dirty bool) error {
	bp.mu.Lock()
	p, ok := bp.frames[id]
	bp.mu.Unlock()
	if !ok {
		return errors.Wrapf(customerrors.ErrPageNotFound, "page %d", id)
	}
	if dirty {
		p.markDirty()
	}
	bp.unpin(id)
	return nil
}

// DeletePage frees a page. Requires the page's pin count to be zero; a
// pinned page is left untouched and ErrPagePinned is returned.
func (bp *BufferPool) DeletePage(id PageID) (bool, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if p, resident := bp.frames[id]; resident {
		if p.pinCountValue() != 0 {
			return false, errors.Wrapf(customerrors.ErrPagePinned, "page %d", id)
		}
		delete(bp.frames, id)
		bp.replacer.MarkPinned(id) // drop from eviction candidates
	}

	delete(bp.disk, id)
	return true, nil
}

func (bp *BufferPool) unpin(id PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	p, ok := bp.frames[id]
	if !ok {
		return
	}

	n := atomic.AddInt32(&p.pinCount, -1)
	if n < 0 {
		panic(errors.Errorf("page %d unpinned more times than it was pinned", id))
	}
	if n == 0 {
		bp.replacer.MarkEvictable(id)
	}
}

// ensureFreeFrameLocked evicts an unpinned page if the pool is at
// capacity. Caller must hold bp.mu.
func (bp *BufferPool) ensureFreeFrameLocked() error {
	if len(bp.frames) < bp.capacity {
		return nil
	}

	victim, ok := bp.replacer.Victim()
	if !ok {
		return customerrors.ErrPagesExhausted
	}

	p := bp.frames[victim]
	if p.IsDirty() {
		buf := make([]byte, len(p.data))
		copy(buf, p.data)
		bp.disk[victim] = buf
	}
	delete(bp.frames, victim)
	return nil
}
