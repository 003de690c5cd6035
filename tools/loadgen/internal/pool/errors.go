package pool

import "errors"

// Common errors returned by the pool.
var (
	// ErrPoolClosed is returned when an operation is attempted on a closed pool.
	ErrPoolClosed = errors.New("id pool is closed")

	// ErrEmpty is returned when no value of the requested kind is available.
	ErrEmpty = errors.New("no value available in pool")
)
