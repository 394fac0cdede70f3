// Command ngotes-server serves the notes handler over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/and161185/ngotes/internal/auth"
	"github.com/and161185/ngotes/internal/config"
	"github.com/and161185/ngotes/internal/migrate"
	"github.com/and161185/ngotes/internal/repository"
	"github.com/and161185/ngotes/internal/repository/memory"
	"github.com/and161185/ngotes/internal/repository/mongodb"
	"github.com/and161185/ngotes/internal/repository/postgres"
	httpserver "github.com/and161185/ngotes/internal/server/http"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, prepares the note store and serves HTTP until signalled.
func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.ParseServer(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ngotes-server:", err)
		os.Exit(2)
	}

	if cfg.IssueToken != "" {
		tok, exp, err := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL).Issue(cfg.IssueToken, "")
		if err != nil {
			fmt.Fprintln(os.Stderr, "issue token:", err)
			os.Exit(1)
		}
		fmt.Printf("%s\n# expires %s\n", tok, exp.Format(time.RFC3339))
		return
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("basePath", cfg.BasePath),
	)
	if cfg.JWTSecret == config.DevSecret {
		logger.Warn("using development jwt secret")
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer closeStore()

	app := httpserver.New(conn, auth.NewVerifier([]byte(cfg.JWTSecret)), logger)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Handler(cfg.BasePath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("graceful shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			closeStore()
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

func newLogger(dev bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openStore selects the backend by DSN scheme. The returned func releases
// process-wide resources (pools, clients).
func openStore(ctx context.Context, cfg config.Server, logger *zap.Logger) (repository.Connector, func(), error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, nil, err
	}
	noop := func() {}

	switch backend {
	case config.BackendPostgres:
		if err := migrate.Up(ctx, cfg.DSN, logger); err != nil {
			return nil, nil, fmt.Errorf("migrate up: %w", err)
		}
		if !cfg.Pool {
			logger.Info("store", zap.String("backend", backend), zap.String("mode", "per-request"))
			return postgres.NewDialConnector(cfg.DSN), noop, nil
		}
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		logger.Info("store", zap.String("backend", backend), zap.String("mode", "pool"))
		return postgres.NewPoolConnector(pool), pool.Close, nil

	case config.BackendMongo:
		if err := mongodb.EnsureIndexes(ctx, cfg.DSN, cfg.DBName); err != nil {
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		if !cfg.Pool {
			logger.Info("store", zap.String("backend", backend), zap.String("mode", "per-request"))
			return mongodb.NewDialConnector(cfg.DSN, cfg.DBName), noop, nil
		}
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.DSN))
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		release := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				logger.Warn("mongo disconnect", zap.Error(err))
			}
		}
		logger.Info("store", zap.String("backend", backend), zap.String("mode", "pool"))
		return mongodb.NewClientConnector(client, cfg.DBName), release, nil
	}

	logger.Warn("store", zap.String("backend", backend), zap.String("note", "notes are lost on exit"))
	return memory.New(), noop, nil
}
