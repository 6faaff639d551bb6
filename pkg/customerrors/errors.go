// Package customerrors defines the sentinel errors shared across the
// storage and indexing packages.
package customerrors

import (
	"errors"
)

var (
	// ErrKeyNotFound should be returned from lookup operations when the
	// lookup key is not found in index/store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyTooLarge is returned by index implementations when a key is
	// larger than a configured limit if any.
	ErrKeyTooLarge = errors.New("key is too large")

	// ErrEmptyKey should be returned by backends when an operation is
	// requested with an empty key.
	ErrEmptyKey = errors.New("empty key")

	// ErrImmutable should be returned by backends when write operation
	// (put/del) is attempted on a readonly.
	ErrImmutable = errors.New("operation not allowed in read-only mode")

	ErrNotFound = errors.New("not found")

	// ErrPagesExhausted is returned by the buffer pool when a new page is
	// requested and no frame can be freed to satisfy it.
	ErrPagesExhausted = errors.New("buffer pool exhausted: no free frame available")

	// ErrPagePinned is returned when a page is requested to be deleted
	// while it still has outstanding pins.
	ErrPagePinned = errors.New("page is pinned and cannot be deleted")

	// ErrPageNotFound is returned when fetching a page id the pool does
	// not hold (never allocated, or deleted), and when unpinning a page
	// that is not resident.
	ErrPageNotFound = errors.New("page not found")

	// ErrDuplicateKey names the key-already-exists condition of a
	// unique-key tree. Tree.Insert does not return it: a duplicate key is
	// reported as (false, nil).
	ErrDuplicateKey = errors.New("key already exists")

	// ErrInvariantViolation marks an internal structural bug: a state
	// that tree operations should never be able to reach.
	ErrInvariantViolation = errors.New("b+ tree invariant violation")
)
