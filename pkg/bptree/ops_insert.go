package bptree

import (
	"github.com/pkg/errors"

	"bptreeidx/pkg/storage"
)

// growAfterInsert is called once with the leaf an insert just landed in.
// If that leaf didn't overflow there's nothing further to do; otherwise
// it drives the split-and-promote cascade up the tree until some
// ancestor absorbs the promoted key without overflowing itself, or a new
// root is created.
func (t *Tree) growAfterInsert(node *Node, ctx *crabbingContext) error {
	for node.IsFull() {
		rightFrame, splitKey, err := t.splitNode(node)
		if err != nil {
			ctx.releaseAll()
			return err
		}
		right := viewNode(rightFrame, t.opts)

		if node.ParentID() == storage.InvalidPageID {
			if err := t.newRoot(node, splitKey, right); err != nil {
				rightFrame.Release()
				ctx.releaseAll()
				return err
			}
			rightFrame.Release()
			ctx.releaseAll()
			return nil
		}

		ctx.popCurrent()
		parentFrame := ctx.current()
		parent := viewNode(parentFrame, t.opts)

		right.SetParentID(parent.PageID())
		if !parent.InsertInternal(splitKey, right.PageID(), t.cmp) {
			rightFrame.Release()
			ctx.releaseAll()
			return errors.New("bptree: parent rejected promoted key, invariant violated")
		}

		rightFrame.Release()
		node = parent
	}

	ctx.releaseAll()
	return nil
}

// splitNode splits a full node in place, returning the newly allocated
// right sibling and the key to promote to the parent. left is mutated to
// hold only the entries it keeps.
func (t *Tree) splitNode(left *Node) (*storage.Frame, []byte, error) {
	if left.IsLeaf() {
		return t.splitLeaf(left)
	}
	return t.splitInternal(left)
}

// splitLeaf gives the new right sibling the upper half of left's
// entries, relinks the leaf chain, and promotes a copy of the right
// sibling's first key (leaves duplicate their split key upward, unlike
// internal nodes, since the key must remain searchable at the leaf
// level).
func (t *Tree) splitLeaf(left *Node) (*storage.Frame, []byte, error) {
	rightFrame, err := t.pool.NewPage()
	if err != nil {
		return nil, nil, errors.Wrap(err, "bptree: allocating leaf sibling")
	}
	right := newLeaf(rightFrame, t.opts)

	total := left.Size()
	mid := (total + 1) / 2
	for i := mid; i < total; i++ {
		right.setLeafEntry(i-mid, left.KeyAt(i), left.ValueAt(i))
	}
	right.SetSize(total - mid)
	left.SetSize(mid)

	right.SetNextLeafID(left.NextLeafID())
	left.SetNextLeafID(right.PageID())
	right.SetParentID(left.ParentID())

	splitKey := append([]byte(nil), right.KeyAt(0)...)
	return rightFrame, splitKey, nil
}

// splitInternal gives the new right sibling the upper half of left's
// (key, child) pairs. Unlike a leaf split, the middle key is promoted to
// the parent and kept in neither internal node: the middle child becomes
// the right node's slot 0, whose key slot stays unused.
func (t *Tree) splitInternal(left *Node) (*storage.Frame, []byte, error) {
	rightFrame, err := t.pool.NewPage()
	if err != nil {
		return nil, nil, errors.Wrap(err, "bptree: allocating internal sibling")
	}
	right := newInternal(rightFrame, t.opts)

	total := left.Size()
	mid := total / 2
	splitKey := append([]byte(nil), left.internalKeyAt(mid)...)

	right.setChildAt(0, left.ChildAt(mid))
	for i := mid + 1; i < total; i++ {
		right.setInternalKeyAt(i-mid, left.internalKeyAt(i))
		right.setChildAt(i-mid, left.ChildAt(i))
	}
	right.SetSize(total - mid)
	left.SetSize(mid)
	right.SetParentID(left.ParentID())

	for i := 0; i < right.Size(); i++ {
		if err := t.reparentChild(right.ChildAt(i), right.PageID()); err != nil {
			return nil, nil, err
		}
	}

	return rightFrame, splitKey, nil
}

// reparentChild updates a moved child's stored parent pointer. Needs its
// own fetch+latch since the child isn't on the current traversal path.
func (t *Tree) reparentChild(childID storage.PageID, parentID storage.PageID) error {
	frame, err := t.pool.FetchPage(childID)
	if err != nil {
		return errors.Wrap(err, "bptree: reparenting child")
	}
	frame.WLatch()
	viewNode(frame, t.opts).SetParentID(parentID)
	frame.Release()
	return nil
}

// newRoot builds a fresh internal root over left and right after left
// (the previous root) split with nowhere to promote to.
func (t *Tree) newRoot(left *Node, key []byte, right *Node) error {
	rootFrame, err := t.pool.NewPage()
	if err != nil {
		return errors.Wrap(err, "bptree: allocating new root")
	}
	root := newInternal(rootFrame, t.opts)
	root.SetFirstChild(left.PageID())
	if !root.InsertInternal(key, right.PageID(), t.cmp) {
		rootFrame.Release()
		return errors.New("bptree: new root rejected only entry, invariant violated")
	}

	left.SetParentID(root.PageID())
	right.SetParentID(root.PageID())
	t.setRoot(root.PageID())
	rootFrame.Release()
	return nil
}
