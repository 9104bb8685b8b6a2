package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msomdec/skillmatch-auth/internal/config"
	"github.com/msomdec/skillmatch-auth/internal/handler"
	"github.com/msomdec/skillmatch-auth/internal/metrics"
	"github.com/msomdec/skillmatch-auth/internal/service"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "skillmatch-auth",
		Short:        "SkillMatch authentication API",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}
			return runMigrate(cmd, cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runMigrate(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	level, _ := cfg.SlogLevel()
	slog.SetDefault(newLogger(level))

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	sweeper := service.NewDenylistSweeper(app.db.denylist, cfg.SweepInterval,
		service.WithPurgeHook(app.metrics.RecordPurged))
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serveErr:
		stop()
		<-sweepDone
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	<-sweepDone
	if err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// app holds the long-lived components of a running server.
type app struct {
	db      *backend
	auth    *service.AuthService
	limiter *service.TokenBucket
	metrics *metrics.Metrics
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := b.db.Migrate(ctx); err != nil {
		b.Close()
		return nil, err
	}
	slog.Info("database migrations applied", "driver", cfg.DatabaseDriver)

	loc, err := cfg.Location()
	if err != nil {
		b.Close()
		return nil, err
	}

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TTL(), service.WithIssuer(cfg.JWTIssuer))
	auth := service.NewAuthService(b.users, b.denylist, b.files, tokens,
		service.NewBcryptHasher(cfg.BcryptCost), service.WithLocation(loc))

	return &app{
		db:      b,
		auth:    auth,
		limiter: service.NewTokenBucket(cfg.RateLimitRPS, cfg.RateLimitBurst),
		metrics: metrics.New(),
	}, nil
}

func (a *app) Handler() http.Handler {
	return handler.NewRouter(handler.Deps{
		Auth:    a.auth,
		Limiter: a.limiter,
		Metrics: a.metrics,
		Ping:    a.db.ping,
	})
}

func (a *app) Close() {
	a.limiter.Close()
	if err := a.db.Close(); err != nil {
		slog.Error("close database", "error", err)
	}
}
