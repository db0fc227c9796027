package database

import "errors"

var (
	// ErrDBClosed is returned for any operation against a closed store.
	ErrDBClosed = errors.New("database is closed")

	// ErrKeyNotFound is returned by Read for an absent key. Callers
	// resuming drop state treat it as "fresh store", not a failure.
	ErrKeyNotFound = errors.New("key not found")

	// ErrBatchOperationFailed is returned when an atomic batch cannot be
	// applied; none of its operations take effect.
	ErrBatchOperationFailed = errors.New("batch operation failed")
)
