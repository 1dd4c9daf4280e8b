package store

import "carewatch/pkg/platform/sentinel"

var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrConflict reports that a confirmed booking already holds the slot.
	ErrConflict = sentinel.ErrConflict
)
