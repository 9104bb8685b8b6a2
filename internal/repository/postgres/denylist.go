package postgres

import (
	"context"
	"fmt"
	"time"
)

// DenylistRepository implements domain.TokenDenylist using PostgreSQL.
type DenylistRepository struct {
	pool pool
}

// NewDenylistRepository creates a new PostgreSQL-backed DenylistRepository.
func NewDenylistRepository(p pool) *DenylistRepository {
	return &DenylistRepository{pool: p}
}

func (r *DenylistRepository) Add(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO token_denylist (token_id, expires_at) VALUES ($1, $2)
		 ON CONFLICT (token_id) DO NOTHING`,
		tokenID, expiresAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert denylist entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DenylistRepository) Contains(ctx context.Context, tokenID string) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM token_denylist WHERE token_id = $1)`, tokenID,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("query denylist: %w", err)
	}
	return found, nil
}

func (r *DenylistRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM token_denylist WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge denylist: %w", err)
	}
	return tag.RowsAffected(), nil
}
