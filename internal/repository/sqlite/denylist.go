package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DenylistRepository implements domain.TokenDenylist using SQLite.
type DenylistRepository struct {
	db *sql.DB
}

// NewDenylistRepository creates a new SQLite-backed DenylistRepository.
func NewDenylistRepository(db *DB) *DenylistRepository {
	return &DenylistRepository{db: db.SqlDB}
}

func (r *DenylistRepository) Add(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO token_denylist (token_id, expires_at) VALUES (?, ?)
		 ON CONFLICT (token_id) DO NOTHING`,
		tokenID, expiresAt.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("insert denylist entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *DenylistRepository) Contains(ctx context.Context, tokenID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM token_denylist WHERE token_id = ?)`, tokenID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query denylist: %w", err)
	}
	return exists, nil
}

func (r *DenylistRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM token_denylist WHERE expires_at < ?`, before.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge denylist: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
