package bptree

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"bptreeidx/pkg/customerrors"
	"bptreeidx/pkg/storage"
	"bptreeidx/util/logger"
)

var log = logger.Component("bptree")

// rootRecordName is the single directory entry a Tree registers in its
// own HeaderPage. One Tree owns one HeaderPage; the directory indirection
// still exists (rather than the tree just remembering an int field)
// because it's how root-pointer updates get published the same way
// BusTub's UpdateRootPageId does, through a named lookup rather than a
// bare struct field.
const rootRecordName = "root"

// Tree is a disk-backed (via pool) B+ tree index: unique fixed-width
// keys, each mapped to a fixed-width value, with leaves linked for
// ordered range iteration. All structural mutation goes through the
// latch-crabbing protocol in latch.go so concurrent readers and writers
// only ever block on pages actually on their path.
type Tree struct {
	pool   *storage.BufferPool
	header *storage.HeaderPage
	cmp    Comparator
	opts   Options

	// rootMu guards the root page id itself, separately from any
	// individual page's latch: a thread must hold it to read or change
	// which page is currently the root.
	rootMu sync.RWMutex
}

// Open creates a new, empty tree backed by pool, with its own header page
// and a freshly allocated root leaf. name is only used for logging; Open
// never reattaches to a tree opened earlier under the same name. cmp must
// order keys consistently with how the caller intends to compare them;
// opts fixes the fixed key/value widths and fan-out for the lifetime of
// the tree.
func Open(name string, pool *storage.BufferPool, cmp Comparator, opts Options) (*Tree, error) {
	if opts.KeySize <= 0 || opts.ValueSize <= 0 {
		return nil, errors.New("bptree: KeySize and ValueSize must be positive")
	}
	if opts.LeafMaxSize < 3 || opts.InternalMaxSize < 3 {
		return nil, errors.New("bptree: LeafMaxSize and InternalMaxSize must be at least 3")
	}
	need := opts.leafCapacityBytes()
	if n := opts.internalCapacityBytes(); n > need {
		need = n
	}
	if opts.PageSize < need {
		return nil, errors.Errorf("bptree: PageSize %d too small for opts, need >= %d", opts.PageSize, need)
	}

	t := &Tree{
		pool:   pool,
		header: storage.NewHeaderPage(),
		cmp:    cmp,
		opts:   opts,
	}

	frame, err := pool.NewPage()
	if err != nil {
		return nil, errors.Wrap(err, "bptree: allocating root")
	}
	newLeaf(frame, opts)
	frame.Release()
	t.header.InsertRecord(rootRecordName, frame.ID())

	log.WithField("name", name).WithField("root_page_id", frame.ID()).Info("opened tree")
	return t, nil
}

func (t *Tree) rootID() storage.PageID {
	id, _ := t.header.GetRootID(rootRecordName)
	return id
}

func (t *Tree) setRoot(id storage.PageID) {
	t.header.UpdateRecord(rootRecordName, id)
}

// RootPageID returns the current root page id. Intended for tests and
// diagnostics, not for use as a stable handle across mutations.
func (t *Tree) RootPageID() storage.PageID {
	t.rootMu.RLock()
	defer t.rootMu.RUnlock()
	return t.rootID()
}

// IsEmpty reports whether the tree currently holds zero keys.
func (t *Tree) IsEmpty() bool {
	t.rootMu.RLock()
	defer t.rootMu.RUnlock()

	frame, err := t.pool.FetchPage(t.rootID())
	if err != nil {
		return true
	}
	defer frame.RLatch().Release()

	root := viewNode(frame, t.opts)
	return root.IsLeaf() && root.Size() == 0
}

// Get performs a read-only point lookup.
func (t *Tree) Get(key []byte) ([]byte, bool) {
	if len(key) == 0 {
		return nil, false
	}

	t.rootMu.RLock()
	frame, err := t.pool.FetchPage(t.rootID())
	if err != nil {
		t.rootMu.RUnlock()
		return nil, false
	}
	frame.RLatch()
	// Once the root page's own latch is held, the root id can no longer
	// change out from under this lookup, so the coarser root latch is
	// released immediately rather than held for the whole descent.
	t.rootMu.RUnlock()
	defer func() { frame.Release() }()

	node := viewNode(frame, t.opts)
	for !node.IsLeaf() {
		childID := node.ChildFor(key, t.cmp)
		childFrame, err := t.pool.FetchPage(childID)
		if err != nil {
			return nil, false
		}
		childFrame.RLatch()
		frame.Release()
		frame = childFrame
		node = viewNode(frame, t.opts)
	}

	return node.Lookup(key, t.cmp)
}

// Insert adds (key, value). The bool result reports whether the key was
// newly inserted: false with a nil error means key already existed and
// was left untouched.
func (t *Tree) Insert(key, value []byte) (bool, error) {
	if len(key) == 0 {
		return false, customerrors.ErrEmptyKey
	}
	if len(key) > t.opts.KeySize || len(value) > t.opts.ValueSize {
		return false, customerrors.ErrKeyTooLarge
	}
	key = padTo(key, t.opts.KeySize)
	value = padTo(value, t.opts.ValueSize)

	t.rootMu.Lock()
	ctx := newCrabbingContext(t.rootMu.Unlock)

	if t.rootID() == storage.InvalidPageID {
		// The last key was removed from the tree at some point, freeing
		// the root entirely (see adjustRoot); re-materialize an empty
		// leaf root the same way Open does.
		rootFrame, err := t.pool.NewPage()
		if err != nil {
			ctx.releaseAll()
			return false, errors.Wrap(err, "bptree: allocating root")
		}
		newLeaf(rootFrame, t.opts)
		rootFrame.Release()
		t.setRoot(rootFrame.ID())
	}

	frame, err := t.pool.FetchPage(t.rootID())
	if err != nil {
		ctx.releaseAll()
		return false, errors.Wrap(err, "bptree: fetching root")
	}
	frame.WLatch()
	ctx.push(frame)
	node := viewNode(frame, t.opts)

	for !node.IsLeaf() {
		if node.Size() < node.MaxSize() {
			ctx.releaseAncestors()
		}
		childID := node.ChildFor(key, t.cmp)
		childFrame, err := t.pool.FetchPage(childID)
		if err != nil {
			ctx.releaseAll()
			return false, errors.Wrap(err, "bptree: descending to child")
		}
		childFrame.WLatch()
		ctx.push(childFrame)
		node = viewNode(childFrame, t.opts)
	}

	if node.Size() < node.MaxSize() {
		ctx.releaseAncestors()
	}

	if !node.InsertLeaf(key, value, t.cmp) {
		ctx.releaseAll()
		return false, nil
	}

	if err := t.growAfterInsert(node, ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes key, if present. Removing a key that isn't present is
// not an error.
func (t *Tree) Remove(key []byte) error {
	if len(key) == 0 {
		return customerrors.ErrEmptyKey
	}
	key = padTo(key, t.opts.KeySize)

	t.rootMu.Lock()
	ctx := newCrabbingContext(t.rootMu.Unlock)

	if t.rootID() == storage.InvalidPageID {
		// Every key was removed and adjustRoot freed the root: nothing to remove.
		ctx.releaseAll()
		return nil
	}

	frame, err := t.pool.FetchPage(t.rootID())
	if err != nil {
		ctx.releaseAll()
		return errors.Wrap(err, "bptree: fetching root")
	}
	frame.WLatch()
	ctx.push(frame)
	node := viewNode(frame, t.opts)

	for !node.IsLeaf() {
		if node.Size() > node.MinSize() {
			ctx.releaseAncestors()
		}
		childID := node.ChildFor(key, t.cmp)
		childFrame, err := t.pool.FetchPage(childID)
		if err != nil {
			ctx.releaseAll()
			return errors.Wrap(err, "bptree: descending to child")
		}
		childFrame.WLatch()
		ctx.push(childFrame)
		node = viewNode(childFrame, t.opts)
	}

	if !node.RemoveLeaf(key, t.cmp) {
		ctx.releaseAll()
		return nil
	}

	return t.shrinkAfterRemove(node, ctx)
}

// InsertFromFile bulk-loads newline-separated "key value" pairs (space
// separated, both treated as raw bytes) from path.
func (t *Tree) InsertFromFile(path string) error {
	return t.scanLines(path, func(key, value []byte) error {
		_, err := t.Insert(key, value)
		return err
	})
}

// RemoveFromFile removes every key named on its own line in path.
func (t *Tree) RemoveFromFile(path string) error {
	return t.scanLines(path, func(key, _ []byte) error {
		return t.Remove(key)
	})
}

func (t *Tree) scanLines(path string, handle func(key, value []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "bptree: opening bulk file")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		key := []byte(fields[0])
		var value []byte
		if len(fields) > 1 {
			value = []byte(fields[1])
		}
		if err := handle(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func padTo(b []byte, size int) []byte {
	if len(b) == size {
		return b
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}
