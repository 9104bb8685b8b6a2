package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/msomdec/skillmatch-auth/internal/config"
	"github.com/msomdec/skillmatch-auth/internal/domain"
	"github.com/msomdec/skillmatch-auth/internal/repository/postgres"
	"github.com/msomdec/skillmatch-auth/internal/repository/s3store"
	"github.com/msomdec/skillmatch-auth/internal/repository/sqlite"
)

// database is implemented by both SQL backends.
type database interface {
	domain.Database
	Ping(ctx context.Context) error
}

// backend bundles the stores selected by configuration.
type backend struct {
	db       database
	users    domain.UserRepository
	denylist domain.TokenDenylist
	files    domain.FileStore
}

func (b *backend) ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

func (b *backend) Close() error {
	return b.db.Close()
}

func openDatabase(ctx context.Context, cfg *config.Config) (database, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	default:
		return sqlite.New(cfg.DatabasePath)
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{}

	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.db, b.users, b.denylist, b.files = db, db.Users(), db.Denylist(), db.FileStore()
	default:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		b.db, b.users, b.denylist, b.files = db, db.Users(), db.Denylist(), db.FileStore()
	}

	if cfg.PhotoStore == config.PhotoStoreS3 {
		files, err := s3store.New(ctx, s3store.Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("open photo store: %w", err)
		}
		b.files = files
	}

	return b, nil
}

func newLogger(level slog.Level) *slog.Logger {
	logOpts := &slog.HandlerOptions{Level: level}
	return slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
}
