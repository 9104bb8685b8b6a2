package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/msomdec/skillmatch-auth/internal/domain"
)

// DenylistSweeper periodically removes expired entries from the token denylist.
// A revoked token that has expired is rejected by signature validation anyway,
// so its denylist row only costs space.
type DenylistSweeper struct {
	denylist domain.TokenDenylist
	interval time.Duration
	now      func() time.Time
	onPurge  func(int64)
}

// SweeperOption configures a DenylistSweeper.
type SweeperOption func(*DenylistSweeper)

// WithPurgeHook registers fn to be called with the number of entries removed
// by each successful sweep.
func WithPurgeHook(fn func(int64)) SweeperOption {
	return func(s *DenylistSweeper) { s.onPurge = fn }
}

// WithSweeperClock overrides the time source used to decide expiry.
func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *DenylistSweeper) { s.now = now }
}

// NewDenylistSweeper creates a sweeper that runs every interval.
func NewDenylistSweeper(denylist domain.TokenDenylist, interval time.Duration, opts ...SweeperOption) *DenylistSweeper {
	s := &DenylistSweeper{denylist: denylist, interval: interval, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps until ctx is cancelled.
func (s *DenylistSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "purge token denylist", "error", err)
			}
		}
	}
}

// SweepOnce purges all entries that are already expired.
func (s *DenylistSweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.denylist.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if s.onPurge != nil {
		s.onPurge(n)
	}
	if n > 0 {
		slog.DebugContext(ctx, "purged expired denylist entries", "count", n)
	}
	return n, nil
}
