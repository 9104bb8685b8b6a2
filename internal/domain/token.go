package domain

import (
	"context"
	"time"
)

// TokenDenylist tracks revoked token ids until their natural expiry.
// Implementations must tolerate concurrent Add and Contains calls for the
// same id.
type TokenDenylist interface {
	// Add records tokenID and reports whether this call inserted it. Of any
	// number of concurrent Adds for one id exactly one returns true.
	Add(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error)
	Contains(ctx context.Context, tokenID string) (bool, error)
	// PurgeExpired removes entries that expired before the given instant and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
