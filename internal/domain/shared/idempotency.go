package shared

import (
	"context"
	"time"
)

// IdempotencyStore claims request keys so that a retried request is not executed twice
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It returns false when the key was already claimed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key is currently claimed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a claim so the request can be retried after a failure
	Release(ctx context.Context, key string) error

	Close() error
}
