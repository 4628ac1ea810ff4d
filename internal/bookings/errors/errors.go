package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrLockHeld means another request holds the advisory lock for the key.
	ErrLockHeld = errors.New("booking lock already held")

	// ErrLockNotOwned means the lock expired and is gone or belongs to
	// someone else by the time its owner released it.
	ErrLockNotOwned = errors.New("booking lock no longer owned")
)
