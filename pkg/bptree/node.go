package bptree

import (
	"encoding/binary"

	"bptreeidx/pkg/storage"
)

// Wire layout. Both node kinds share a small header; leaves append a
// next-leaf pointer, internal nodes don't (their header is one field
// shorter).
//
//	byte 0        kind (0 = leaf, 1 = internal)
//	bytes 1..5    parent page id (int32)
//	bytes 5..7    size (uint16)
//	[leaf only] bytes 7..15   next leaf page id (int64)
//
// Entries follow immediately after the header:
//   - leaf:     size * (key || value)
//   - internal: (max_size+1) key slots, slot 0 unused, followed by
//     (max_size+1) child page ids. Fixed slot count (not size-based)
//     keeps child offsets stable across inserts/removes without a
//     second pass to re-pack.
const (
	kindOffset     = 0
	parentIDOffset = 1
	sizeOffset     = 5

	leafHeaderSize     = 15
	internalHeaderSize = 7

	pageIDSize = 8
)

type nodeKind uint8

const (
	leafKind     nodeKind = 0
	internalKind nodeKind = 1
)

// Node is a decoded view over a page frame's raw bytes. It borrows the
// frame; callers are responsible for the frame's latch and lifetime.
type Node struct {
	frame *storage.Frame
	opts  Options
}

func newLeaf(frame *storage.Frame, opts Options) *Node {
	n := &Node{frame: frame, opts: opts}
	data := n.data()
	data[kindOffset] = byte(leafKind)
	n.SetParentID(storage.InvalidPageID)
	n.SetSize(0)
	n.SetNextLeafID(storage.InvalidPageID)
	return n
}

func newInternal(frame *storage.Frame, opts Options) *Node {
	n := &Node{frame: frame, opts: opts}
	data := n.data()
	data[kindOffset] = byte(internalKind)
	n.SetParentID(storage.InvalidPageID)
	n.SetSize(0)
	return n
}

// viewNode wraps an already-populated frame, inferring its kind from the
// stored header byte.
func viewNode(frame *storage.Frame, opts Options) *Node {
	return &Node{frame: frame, opts: opts}
}

func (n *Node) data() []byte { return n.frame.Data() }

func (n *Node) PageID() storage.PageID { return n.frame.ID() }

func (n *Node) IsLeaf() bool { return nodeKind(n.data()[kindOffset]) == leafKind }

func (n *Node) ParentID() storage.PageID {
	return storage.PageID(int32(binary.BigEndian.Uint32(n.data()[parentIDOffset:])))
}

func (n *Node) SetParentID(id storage.PageID) {
	binary.BigEndian.PutUint32(n.data()[parentIDOffset:], uint32(int32(id)))
	n.frame.MarkDirty()
}

func (n *Node) Size() int {
	return int(binary.BigEndian.Uint16(n.data()[sizeOffset:]))
}

func (n *Node) SetSize(size int) {
	binary.BigEndian.PutUint16(n.data()[sizeOffset:], uint16(size))
	n.frame.MarkDirty()
}

func (n *Node) MaxSize() int {
	if n.IsLeaf() {
		return n.opts.LeafMaxSize
	}
	return n.opts.InternalMaxSize
}

func (n *Node) MinSize() int {
	if n.IsLeaf() {
		return n.opts.leafMinSize()
	}
	return n.opts.internalMinSize()
}

// IsFull reports whether the node has grown past its steady-state
// max_size, i.e. it is sitting in the transient overflow slot and needs
// to split before any further structural change.
func (n *Node) IsFull() bool { return n.Size() > n.MaxSize() }

// IsUnderflowing reports whether the node holds fewer entries than its
// min_size. The root is exempt from this by convention enforced by the
// caller, not by the node itself.
func (n *Node) IsUnderflowing() bool { return n.Size() < n.MinSize() }

func (n *Node) keySize() int { return n.opts.KeySize }

// --- leaf entries -----------------------------------------------------

func (n *Node) leafEntryOffset(i int) int {
	return leafHeaderSize + i*(n.opts.KeySize+n.opts.ValueSize)
}

func (n *Node) KeyAt(i int) []byte {
	if !n.IsLeaf() {
		return n.internalKeyAt(i)
	}
	off := n.leafEntryOffset(i)
	return n.data()[off : off+n.opts.KeySize]
}

func (n *Node) ValueAt(i int) []byte {
	off := n.leafEntryOffset(i)
	start := off + n.opts.KeySize
	return n.data()[start : start+n.opts.ValueSize]
}

func (n *Node) setLeafEntry(i int, key, value []byte) {
	off := n.leafEntryOffset(i)
	buf := n.data()
	copy(buf[off:], key)
	copy(buf[off+n.opts.KeySize:], value)
	n.frame.MarkDirty()
}

func (n *Node) NextLeafID() storage.PageID {
	return storage.PageID(int64(binary.BigEndian.Uint64(n.data()[internalHeaderSize:])))
}

func (n *Node) SetNextLeafID(id storage.PageID) {
	binary.BigEndian.PutUint64(n.data()[internalHeaderSize:], uint64(int64(id)))
	n.frame.MarkDirty()
}

// Lookup does an exact-match binary search for key among this leaf's
// entries.
func (n *Node) Lookup(key []byte, cmp Comparator) ([]byte, bool) {
	i, found := n.leafSearch(key, cmp)
	if !found {
		return nil, false
	}
	v := n.ValueAt(i)
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// leafSearch returns the smallest index i such that key_at(i) >= key, and
// whether that slot is an exact match.
func (n *Node) leafSearch(key []byte, cmp Comparator) (int, bool) {
	size := n.Size()
	lo, hi := 0, size
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp.Compare(n.KeyAt(mid), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < size && cmp.Compare(n.KeyAt(lo), key) == 0
}

// InsertLeaf inserts (key, value) keeping entries sorted. Returns false
// on a duplicate key; the node's physical capacity (max_size+1) always
// has room otherwise, so callers must check IsFull after a successful
// insert to decide whether to split.
func (n *Node) InsertLeaf(key, value []byte, cmp Comparator) bool {
	i, found := n.leafSearch(key, cmp)
	if found {
		return false
	}
	size := n.Size()
	for j := size; j > i; j-- {
		k, v := n.KeyAt(j-1), n.ValueAt(j-1)
		n.setLeafEntry(j, k, v)
	}
	n.setLeafEntry(i, key, value)
	n.SetSize(size + 1)
	return true
}

// RemoveLeaf deletes the entry matching key, if present.
func (n *Node) RemoveLeaf(key []byte, cmp Comparator) bool {
	i, found := n.leafSearch(key, cmp)
	if !found {
		return false
	}
	size := n.Size()
	for j := i; j < size-1; j++ {
		k, v := n.KeyAt(j+1), n.ValueAt(j+1)
		n.setLeafEntry(j, k, v)
	}
	n.SetSize(size - 1)
	return true
}

// --- internal entries ---------------------------------------------------

func (n *Node) internalKeySlotOffset(i int) int {
	return internalHeaderSize + i*n.opts.KeySize
}

func (n *Node) internalChildSlotOffset(i int) int {
	return internalHeaderSize + (n.opts.InternalMaxSize+1)*n.opts.KeySize + i*pageIDSize
}

func (n *Node) internalKeyAt(i int) []byte {
	off := n.internalKeySlotOffset(i)
	return n.data()[off : off+n.opts.KeySize]
}

func (n *Node) setInternalKeyAt(i int, key []byte) {
	off := n.internalKeySlotOffset(i)
	copy(n.data()[off:], key)
	n.frame.MarkDirty()
}

func (n *Node) ChildAt(i int) storage.PageID {
	off := n.internalChildSlotOffset(i)
	return storage.PageID(int64(binary.BigEndian.Uint64(n.data()[off:])))
}

func (n *Node) setChildAt(i int, id storage.PageID) {
	off := n.internalChildSlotOffset(i)
	binary.BigEndian.PutUint64(n.data()[off:], uint64(int64(id)))
	n.frame.MarkDirty()
}

// ChildFor returns the child pointer to follow for key: the child at the
// largest slot i whose separator key is <= key, defaulting to slot 0 for
// keys smaller than every separator. Slot 0's key is never consulted.
func (n *Node) ChildFor(key []byte, cmp Comparator) storage.PageID {
	size := n.Size()
	i := 1
	for i < size && cmp.Compare(n.internalKeyAt(i), key) <= 0 {
		i++
	}
	return n.ChildAt(i - 1)
}

// IndexOfChild linear-scans for a child pointer's slot.
func (n *Node) IndexOfChild(id storage.PageID) int {
	for i := 0; i < n.Size(); i++ {
		if n.ChildAt(i) == id {
			return i
		}
	}
	return -1
}

// InsertInternal inserts (key, childID) in sorted key order among slots
// [1, size). Returns false only if the node has no physical room left,
// which a caller respecting split-before-overflow never triggers.
func (n *Node) InsertInternal(key []byte, childID storage.PageID, cmp Comparator) bool {
	size := n.Size()
	if size > n.opts.InternalMaxSize {
		return false
	}
	i := 1
	for i < size && cmp.Compare(n.internalKeyAt(i), key) < 0 {
		i++
	}
	for j := size; j > i; j-- {
		n.setInternalKeyAt(j, n.internalKeyAt(j-1))
		n.setChildAt(j, n.ChildAt(j-1))
	}
	n.setInternalKeyAt(i, key)
	n.setChildAt(i, childID)
	n.SetSize(size + 1)
	return true
}

// SetFirstChild sets slot 0's child pointer directly, used when
// constructing a brand-new root or splitting off a new left sibling.
func (n *Node) SetFirstChild(id storage.PageID) {
	n.setChildAt(0, id)
	if n.Size() == 0 {
		n.SetSize(1)
	}
}

// RemoveInternalAt deletes the (key, child) pair at slot i.
func (n *Node) RemoveInternalAt(i int) {
	size := n.Size()
	for j := i; j < size-1; j++ {
		n.setInternalKeyAt(j, n.internalKeyAt(j+1))
		n.setChildAt(j, n.ChildAt(j+1))
	}
	n.SetSize(size - 1)
}

// RemoveOnlyChild empties a size-1 internal node and returns its sole
// surviving child, for the root-shrinks-downward case.
func (n *Node) RemoveOnlyChild() storage.PageID {
	child := n.ChildAt(0)
	n.SetSize(0)
	return child
}
