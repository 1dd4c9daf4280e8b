package storage

import "carewatch/pkg/platform/sentinel"

var (
	// ErrNotFound keeps missing-object errors consistent across in-memory and
	// filesystem stores.
	ErrNotFound = sentinel.ErrNotFound
)
