package storage

import (
	"sync"

	"github.com/google/uuid"
)

// HeaderPage is the directory the tree consults to turn an index name into
// a root page id, and to notice when the root has moved. It is kept
// in-process rather than paged, since persisting the directory itself is
// outside this spec's scope (Non-goals: crash recovery).
type HeaderPage struct {
	mu    sync.RWMutex
	roots map[string]PageID

	// runID tags this header page instance; dump files embed it so dumps
	// of trees with different header pages can be told apart. Repeated
	// dumps through the same header page carry the same id.
	runID uuid.UUID
}

func NewHeaderPage() *HeaderPage {
	return &HeaderPage{
		roots: make(map[string]PageID),
		runID: uuid.New(),
	}
}

// InsertRecord registers the root page id for a not-yet-known index name.
// Returns false if the name is already registered.
func (h *HeaderPage) InsertRecord(indexName string, root PageID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.roots[indexName]; ok {
		return false
	}
	h.roots[indexName] = root
	return true
}

// UpdateRecord repoints an already-registered index name at a new root
// page id. Returns false if the name isn't registered.
func (h *HeaderPage) UpdateRecord(indexName string, root PageID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.roots[indexName]; !ok {
		return false
	}
	h.roots[indexName] = root
	return true
}

// GetRootID looks up the current root page id for an index name.
func (h *HeaderPage) GetRootID(indexName string) (PageID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	id, ok := h.roots[indexName]
	return id, ok
}

// RunID identifies this header page instance, used to tag dump output.
func (h *HeaderPage) RunID() string {
	return h.runID.String()
}
