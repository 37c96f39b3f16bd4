package store

import "errors"

var (
	// ErrNotFound reports a record or operation that does not exist locally.
	ErrNotFound = errors.New("not found in local store")

	// ErrStorageIO reports a transient read/write failure. Retryable.
	ErrStorageIO = errors.New("local storage i/o error")

	// ErrStorageCorrupted reports an unreadable database. Not retryable;
	// surfaced to the user.
	ErrStorageCorrupted = errors.New("local storage corrupted")
)
