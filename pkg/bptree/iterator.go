package bptree

import "bptreeidx/pkg/storage"

// Iterator walks a tree's leaves in key order, following the leaf
// sibling chain rather than re-descending from the root for every
// Next. It holds a read latch on exactly one leaf page at a time.
type Iterator struct {
	tree *Tree
	leaf *storage.Frame
	node *Node
	slot int
	done bool
}

// Begin returns an iterator positioned at the smallest key in the tree.
func (t *Tree) Begin() *Iterator {
	t.rootMu.RLock()
	defer t.rootMu.RUnlock()

	frame, err := t.pool.FetchPage(t.rootID())
	if err != nil {
		return &Iterator{tree: t, done: true}
	}
	frame.RLatch()
	node := viewNode(frame, t.opts)
	for !node.IsLeaf() {
		childID := node.ChildAt(0)
		childFrame, err := t.pool.FetchPage(childID)
		if err != nil {
			frame.Release()
			return &Iterator{tree: t, done: true}
		}
		childFrame.RLatch()
		frame.Release()
		frame = childFrame
		node = viewNode(frame, t.opts)
	}

	return &Iterator{tree: t, leaf: frame, node: node, slot: 0, done: node.Size() == 0}
}

// BeginAt returns an iterator positioned at the smallest key >= key.
func (t *Tree) BeginAt(key []byte) *Iterator {
	t.rootMu.RLock()
	defer t.rootMu.RUnlock()

	frame, err := t.pool.FetchPage(t.rootID())
	if err != nil {
		return &Iterator{tree: t, done: true}
	}
	frame.RLatch()
	node := viewNode(frame, t.opts)
	for !node.IsLeaf() {
		childID := node.ChildFor(key, t.cmp)
		childFrame, err := t.pool.FetchPage(childID)
		if err != nil {
			frame.Release()
			return &Iterator{tree: t, done: true}
		}
		childFrame.RLatch()
		frame.Release()
		frame = childFrame
		node = viewNode(frame, t.opts)
	}

	slot, _ := node.leafSearch(key, t.cmp)
	it := &Iterator{tree: t, leaf: frame, node: node, slot: slot}
	if slot >= node.Size() {
		// key sorts after every entry in this leaf; the smallest key >= key,
		// if any, is the first entry of the following leaf.
		it.slot = node.Size() - 1
		it.Next()
	}
	return it
}

// End returns an already-exhausted iterator, useful as a sentinel to
// compare a live iterator's Done() state against.
func (t *Tree) End() *Iterator {
	return &Iterator{tree: t, done: true}
}

// Done reports whether the iterator has been advanced past the last
// entry.
func (it *Iterator) Done() bool { return it.done }

// Key returns the current entry's key. Only valid while !Done().
func (it *Iterator) Key() []byte {
	return append([]byte(nil), it.node.KeyAt(it.slot)...)
}

// Value returns the current entry's value. Only valid while !Done().
func (it *Iterator) Value() []byte {
	return append([]byte(nil), it.node.ValueAt(it.slot)...)
}

// Next advances to the following entry, crossing into the next leaf via
// the sibling chain if the current one is exhausted.
func (it *Iterator) Next() {
	if it.done {
		return
	}
	it.slot++
	if it.slot < it.node.Size() {
		return
	}

	nextID := it.node.NextLeafID()
	it.leaf.Release()
	if nextID == storage.InvalidPageID {
		it.done = true
		it.leaf = nil
		it.node = nil
		return
	}

	frame, err := it.tree.pool.FetchPage(nextID)
	if err != nil {
		it.done = true
		it.leaf = nil
		it.node = nil
		return
	}
	frame.RLatch()
	it.leaf = frame
	it.node = viewNode(frame, it.tree.opts)
	it.slot = 0
	it.done = it.node.Size() == 0
}

// Close releases the leaf latch an unfinished iterator is still holding.
// Safe to call on an already-exhausted iterator.
func (it *Iterator) Close() {
	if it.leaf != nil {
		it.leaf.Release()
		it.leaf = nil
	}
	it.done = true
}
