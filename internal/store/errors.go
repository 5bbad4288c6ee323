package store

import "errors"

var (
	ErrNotFound = errors.New("store: item not found")
	// ErrConflict signals that the library rejected a write because the
	// supplied version token is stale.
	ErrConflict = errors.New("store: item version conflict")
)
