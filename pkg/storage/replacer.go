package storage

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Replacer tracks which resident, currently-unpinned pages are eligible
// for eviction and picks a victim when the pool needs a free frame.
//
// The B+ tree spec explicitly treats buffer-pool replacement policy as an
// out-of-scope external collaborator ("ancillary buffer-pool replacement
// (clock/LRU-k)... out of scope"); this type exists only so the pool has
// *a* concrete, working policy to call, backed by the pack's
// hashicorp/golang-lru rather than a hand-rolled clock or LRU-K
// implementation.
type Replacer struct {
	candidates *lru.Cache[PageID, struct{}]
}

func newReplacer(capacity int) *Replacer {
	c, _ := lru.New[PageID, struct{}](capacity)
	return &Replacer{candidates: c}
}

// MarkEvictable records that id has no outstanding pins and may be
// reclaimed.
func (r *Replacer) MarkEvictable(id PageID) {
	r.candidates.Add(id, struct{}{})
}

// MarkPinned removes id from the eviction candidate set, if present.
func (r *Replacer) MarkPinned(id PageID) {
	r.candidates.Remove(id)
}

// Victim evicts and returns the least-recently-unpinned candidate page,
// if any exist.
func (r *Replacer) Victim() (PageID, bool) {
	id, _, ok := r.candidates.RemoveOldest()
	return id, ok
}

func (r *Replacer) Len() int {
	return r.candidates.Len()
}
