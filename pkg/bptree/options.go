package bptree

import "bptreeidx/util/helpers"

// Options fixes the sizes a Tree is opened with. Keys and values are
// fixed-width slots (like BusTub's GenericKey/RID), so KeySize and
// ValueSize bound every key/value ever inserted; callers padding or
// hashing larger payloads down to these widths is their concern, not the
// tree's.
type Options struct {
	// PageSize must be large enough to hold LeafMaxSize+1 leaf entries (or
	// InternalMaxSize+1 internal entries) plus header; Open validates this.
	PageSize int

	KeySize   int
	ValueSize int

	// LeafMaxSize and InternalMaxSize are the "inclusive of the transient
	// overflow slot" max_size from the node's contract: a node physically
	// has room for max_size+1 entries so an insert can always land before
	// the split decision is made.
	LeafMaxSize     int
	InternalMaxSize int
}

func (o Options) leafMinSize() int {
	return helpers.CeilDiv(o.LeafMaxSize-1, 2)
}

func (o Options) internalMinSize() int {
	return helpers.CeilDiv(o.InternalMaxSize, 2)
}

func (o Options) leafCapacityBytes() int {
	return leafHeaderSize + (o.LeafMaxSize+1)*(o.KeySize+o.ValueSize)
}

func (o Options) internalCapacityBytes() int {
	return internalHeaderSize + (o.InternalMaxSize+1)*(o.KeySize+pageIDSize)
}
