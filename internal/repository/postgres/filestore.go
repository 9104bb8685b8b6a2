package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/msomdec/skillmatch-auth/internal/domain"
)

// FileStore keeps uploaded files in a bytea table.
type FileStore struct {
	pool pool
}

// NewFileStore creates a new PostgreSQL-backed FileStore.
func NewFileStore(p pool) *FileStore {
	return &FileStore{pool: p}
}

func (s *FileStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO file_blobs (key, content_type, data) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data`,
		key, contentType, data,
	)
	if err != nil {
		return fmt.Errorf("save file %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
	)
	err := s.pool.QueryRow(ctx, `SELECT data, content_type FROM file_blobs WHERE key = $1`, key).
		Scan(&data, &contentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get file %s: %w", key, err)
	}
	return data, contentType, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM file_blobs WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete file %s: %w", key, err)
	}
	return nil
}
