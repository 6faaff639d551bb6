package bptree

import "bptreeidx/pkg/storage"

// crabbingContext accumulates the write latches held during a single
// top-down descent, plus the release for the tree-wide root latch that
// protects the root page id pointer. Latches release in one batch,
// oldest-first, the moment a node proves "safe" for the operation in
// progress (an insert/remove on it can't possibly propagate up to its
// parent) — the same ancestor-release rule as BusTub's Context-based
// crabbing, just modeled as a small stack instead of a deque of raw page
// ids.
type crabbingContext struct {
	releaseRoot func()
	frames      []*storage.Frame
}

func newCrabbingContext(releaseRoot func()) *crabbingContext {
	return &crabbingContext{releaseRoot: releaseRoot}
}

func (c *crabbingContext) push(f *storage.Frame) {
	c.frames = append(c.frames, f)
}

// current returns the most recently pushed frame, the node the caller is
// presently positioned on.
func (c *crabbingContext) current() *storage.Frame {
	return c.frames[len(c.frames)-1]
}

// parent returns the frame one level up from current, or nil if current
// is the root.
func (c *crabbingContext) parent() *storage.Frame {
	if len(c.frames) < 2 {
		return nil
	}
	return c.frames[len(c.frames)-2]
}

// popCurrent drops and releases the current (deepest) frame, used once a
// split/merge has finished folding its effect into the parent and has no
// further need of the child.
func (c *crabbingContext) popCurrent() {
	c.current().Release()
	c.frames = c.frames[:len(c.frames)-1]
}

// releaseAncestors drops every latch held except the current node's,
// plus the root latch (the root pointer can no longer change on this
// path once a descendant is known safe).
func (c *crabbingContext) releaseAncestors() {
	if c.releaseRoot != nil {
		c.releaseRoot()
		c.releaseRoot = nil
	}
	if len(c.frames) <= 1 {
		return
	}
	keep := c.frames[len(c.frames)-1]
	for _, f := range c.frames[:len(c.frames)-1] {
		f.Release()
	}
	c.frames = []*storage.Frame{keep}
}

// releaseAll drops every latch still held, including the root latch.
func (c *crabbingContext) releaseAll() {
	if c.releaseRoot != nil {
		c.releaseRoot()
		c.releaseRoot = nil
	}
	for _, f := range c.frames {
		f.Release()
	}
	c.frames = nil
}
