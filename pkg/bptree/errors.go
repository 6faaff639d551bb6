package bptree

import "bptreeidx/pkg/customerrors"

// Re-exported so callers of this package don't need to import
// customerrors directly for the handful of sentinels the tree API
// surfaces.
var (
	ErrKeyNotFound        = customerrors.ErrKeyNotFound
	ErrDuplicateKey       = customerrors.ErrDuplicateKey
	ErrEmptyKey           = customerrors.ErrEmptyKey
	ErrPagesExhausted     = customerrors.ErrPagesExhausted
	ErrInvariantViolation = customerrors.ErrInvariantViolation
)
