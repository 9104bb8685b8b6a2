// Package postgres implements the account, denylist and file stores on
// PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/skillmatch-auth/internal/domain"
)

// pool is the subset of *pgxpool.Pool the repositories use. pgxmock's
// PgxPoolIface satisfies it in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a pgx connection pool and vends the repositories built on it.
type DB struct {
	pool *pgxpool.Pool
	url  string
}

// New connects to the database at url and verifies the connection.
func New(ctx context.Context, url string) (*DB, error) {
	p, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{pool: p, url: url}, nil
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	m, err := NewMigrator(db.url)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Users() *UserRepository {
	return NewUserRepository(db.pool)
}

func (db *DB) Denylist() *DenylistRepository {
	return NewDenylistRepository(db.pool)
}

func (db *DB) FileStore() domain.FileStore {
	return NewFileStore(db.pool)
}
