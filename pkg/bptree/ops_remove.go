package bptree

import (
	"github.com/pkg/errors"

	"bptreeidx/pkg/storage"
)

// shrinkAfterRemove is called once with the leaf (or, during a cascading
// merge, an internal node) a remove just took an entry out of. It walks
// up the tree coalescing or redistributing with a sibling for as long as
// the current node is underflowing, stopping once some ancestor absorbs
// the change without itself falling under min_size, or the root is
// reached.
func (t *Tree) shrinkAfterRemove(node *Node, ctx *crabbingContext) error {
	for node.ParentID() != storage.InvalidPageID && node.IsUnderflowing() {
		parent := viewNode(ctx.parent(), t.opts)

		merged, err := t.coalesceOrRedistribute(node, parent, ctx)
		if err != nil {
			ctx.releaseAll()
			return err
		}
		ctx.popCurrent()
		if !merged {
			ctx.releaseAll()
			return nil
		}
		node = parent
	}

	if node.ParentID() == storage.InvalidPageID {
		return t.adjustRoot(node, ctx)
	}
	ctx.releaseAll()
	return nil
}

// coalesceOrRedistribute resolves node's underflow against one immediate
// sibling (preferring its left sibling, matching BusTub). Returns
// merged=true if node's page was folded into (or absorbed) its sibling
// and one of the two pages was deleted; merged=false if entries were
// instead rebalanced between the two without changing parent's child
// count.
func (t *Tree) coalesceOrRedistribute(node, parent *Node, ctx *crabbingContext) (merged bool, err error) {
	idx := parent.IndexOfChild(node.PageID())
	if idx < 0 {
		return false, errors.New("bptree: child not found in parent, invariant violated")
	}

	useLeft := idx > 0
	siblingIdx := idx + 1
	if useLeft {
		siblingIdx = idx - 1
	}

	siblingFrame, err := t.pool.FetchPage(parent.ChildAt(siblingIdx))
	if err != nil {
		return false, errors.Wrap(err, "bptree: fetching sibling")
	}
	defer siblingFrame.Release()
	siblingFrame.WLatch()
	sibling := viewNode(siblingFrame, t.opts)

	if node.IsLeaf() {
		if node.Size()+sibling.Size() <= node.MaxSize() {
			if useLeft {
				mergeLeaves(sibling, node)
				t.deleteNodePage(node, ctx)
				parent.RemoveInternalAt(idx)
			} else {
				mergeLeaves(node, sibling)
				t.deleteSiblingPage(siblingFrame)
				parent.RemoveInternalAt(siblingIdx)
			}
			return true, nil
		}
		redistributeLeaves(useLeft, node, sibling, parent, idx, siblingIdx)
		return false, nil
	}

	if node.Size()+sibling.Size() <= node.MaxSize() {
		if useLeft {
			separator := append([]byte(nil), parent.internalKeyAt(idx)...)
			if err := t.mergeInternal(sibling, node, separator); err != nil {
				return false, err
			}
			t.deleteNodePage(node, ctx)
			parent.RemoveInternalAt(idx)
		} else {
			separator := append([]byte(nil), parent.internalKeyAt(siblingIdx)...)
			if err := t.mergeInternal(node, sibling, separator); err != nil {
				return false, err
			}
			t.deleteSiblingPage(siblingFrame)
			parent.RemoveInternalAt(siblingIdx)
		}
		return true, nil
	}

	return false, t.redistributeInternal(useLeft, node, sibling, parent, idx, siblingIdx)
}

// deleteNodePage releases node's own frame (already tracked in ctx) and
// frees its page. Safe to call before ctx.popCurrent later releases the
// same frame again: Frame.Release is idempotent.
func (t *Tree) deleteNodePage(node *Node, ctx *crabbingContext) {
	id := node.PageID()
	ctx.current().Release()
	if _, err := t.pool.DeletePage(id); err != nil {
		log.WithError(err).WithField("page_id", id).Warn("failed to free merged page")
	}
}

func (t *Tree) deleteSiblingPage(siblingFrame *storage.Frame) {
	id := siblingFrame.ID()
	siblingFrame.Release()
	if _, err := t.pool.DeletePage(id); err != nil {
		log.WithError(err).WithField("page_id", id).Warn("failed to free merged sibling page")
	}
}

func mergeLeaves(left, right *Node) {
	base := left.Size()
	for i := 0; i < right.Size(); i++ {
		left.setLeafEntry(base+i, right.KeyAt(i), right.ValueAt(i))
	}
	left.SetSize(base + right.Size())
	left.SetNextLeafID(right.NextLeafID())
}

// mergeInternal folds right's children into left, pulling the parent's
// separator key down as the key above right's first (previously
// implicit) child.
func (t *Tree) mergeInternal(left, right *Node, separator []byte) error {
	base := left.Size()
	left.setInternalKeyAt(base, separator)
	left.setChildAt(base, right.ChildAt(0))
	for i := 1; i < right.Size(); i++ {
		left.setInternalKeyAt(base+i, right.internalKeyAt(i))
		left.setChildAt(base+i, right.ChildAt(i))
	}
	left.SetSize(base + right.Size())

	for i := base; i < left.Size(); i++ {
		if err := t.reparentChild(left.ChildAt(i), left.PageID()); err != nil {
			return err
		}
	}
	return nil
}

func redistributeLeaves(useLeft bool, node, sibling, parent *Node, idx, siblingIdx int) {
	if useLeft {
		last := sibling.Size() - 1
		k := append([]byte(nil), sibling.KeyAt(last)...)
		v := append([]byte(nil), sibling.ValueAt(last)...)
		for j := node.Size(); j > 0; j-- {
			node.setLeafEntry(j, node.KeyAt(j-1), node.ValueAt(j-1))
		}
		node.setLeafEntry(0, k, v)
		node.SetSize(node.Size() + 1)
		sibling.SetSize(last)
		parent.setInternalKeyAt(idx, node.KeyAt(0))
		return
	}

	k := append([]byte(nil), sibling.KeyAt(0)...)
	v := append([]byte(nil), sibling.ValueAt(0)...)
	node.setLeafEntry(node.Size(), k, v)
	node.SetSize(node.Size() + 1)
	for j := 0; j < sibling.Size()-1; j++ {
		sibling.setLeafEntry(j, sibling.KeyAt(j+1), sibling.ValueAt(j+1))
	}
	sibling.SetSize(sibling.Size() - 1)
	parent.setInternalKeyAt(siblingIdx, sibling.KeyAt(0))
}

// redistributeInternal rotates one (key, child) pair through the parent
// separator, borrowing from whichever sibling has entries to spare.
func (t *Tree) redistributeInternal(useLeft bool, node, sibling, parent *Node, idx, siblingIdx int) error {
	if useLeft {
		last := sibling.Size() - 1
		borrowedChild := sibling.ChildAt(last)
		newParentSep := append([]byte(nil), sibling.internalKeyAt(last)...)
		oldParentSep := append([]byte(nil), parent.internalKeyAt(idx)...)

		for j := node.Size(); j > 0; j-- {
			node.setInternalKeyAt(j, node.internalKeyAt(j-1))
			node.setChildAt(j, node.ChildAt(j-1))
		}
		node.setChildAt(0, borrowedChild)
		node.setInternalKeyAt(1, oldParentSep)
		node.SetSize(node.Size() + 1)
		sibling.SetSize(last)
		parent.setInternalKeyAt(idx, newParentSep)
		return t.reparentChild(borrowedChild, node.PageID())
	}

	borrowedChild := sibling.ChildAt(0)
	newParentSep := append([]byte(nil), sibling.internalKeyAt(1)...)
	oldParentSep := append([]byte(nil), parent.internalKeyAt(siblingIdx)...)

	node.setInternalKeyAt(node.Size(), oldParentSep)
	node.setChildAt(node.Size(), borrowedChild)
	node.SetSize(node.Size() + 1)
	for j := 0; j < sibling.Size()-1; j++ {
		sibling.setInternalKeyAt(j, sibling.internalKeyAt(j+1))
		sibling.setChildAt(j, sibling.ChildAt(j+1))
	}
	sibling.SetSize(sibling.Size() - 1)
	parent.setInternalKeyAt(siblingIdx, newParentSep)
	return t.reparentChild(borrowedChild, node.PageID())
}

// adjustRoot handles the three cases the remove path leaves for the
// root: an internal root with a single remaining child shrinks the
// tree's height by becoming that child; an emptied leaf root frees its
// page and the tree goes back to having no root at all (the next Insert
// allocates a new leaf root); anything else is left as-is, since the root
// is otherwise exempt from min_size.
func (t *Tree) adjustRoot(root *Node, ctx *crabbingContext) error {
	defer ctx.releaseAll()

	if root.IsLeaf() {
		if root.Size() != 0 {
			return nil
		}
		rootID := root.PageID()
		t.setRoot(storage.InvalidPageID)
		ctx.current().Release()
		if _, err := t.pool.DeletePage(rootID); err != nil {
			return errors.Wrap(err, "bptree: deleting emptied root")
		}
		return nil
	}

	if root.Size() != 1 {
		return nil
	}

	childID := root.RemoveOnlyChild()
	childFrame, err := t.pool.FetchPage(childID)
	if err != nil {
		return errors.Wrap(err, "bptree: fetching new root")
	}
	childFrame.WLatch()
	viewNode(childFrame, t.opts).SetParentID(storage.InvalidPageID)
	childFrame.Release()

	t.setRoot(childID)

	rootID := root.PageID()
	ctx.current().Release()
	if _, err := t.pool.DeletePage(rootID); err != nil {
		return errors.Wrap(err, "bptree: deleting old root")
	}
	return nil
}
