// Package main is the entry point for the blog API.
//
// The main package stays minimal. Its job is to:
//  1. Read configuration (flags, environment variables, optional .env file)
//  2. Create dependencies (logger, database store)
//  3. Run the requested command
//
// COMMANDS:
//
//	blog-api serve     run migrations, then serve HTTP (default)
//	blog-api migrate   apply pending migrations and exit
//
// Every flag also reads an environment variable, so the usual deployment
// is just `SECRET_KEY=... blog-api`.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/logging"
	"github.com/sakif/blog-api/internal/repository/sqlstore"
	"github.com/sakif/blog-api/internal/server"
)

func main() {
	// A .env file is optional. Variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cfg := config.Default()
	var (
		tokenMinutes int
		corsOrigins  string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "secret-key",
			Usage:       "HMAC key used to sign access tokens",
			EnvVars:     []string{"SECRET_KEY"},
			Destination: &cfg.SecretKey,
		},
		&cli.StringFlag{
			Name:        "algorithm",
			Usage:       "token signing algorithm (HS256, HS384, HS512)",
			EnvVars:     []string{"ALGORITHM"},
			Value:       cfg.Algorithm,
			Destination: &cfg.Algorithm,
		},
		&cli.IntFlag{
			Name:        "token-minutes",
			Usage:       "access token lifetime in minutes",
			EnvVars:     []string{"ACCESS_TOKEN_EXPIRE_MINUTES"},
			Value:       config.DefaultTokenMinutes,
			Destination: &tokenMinutes,
		},
		&cli.StringFlag{
			Name:        "db-driver",
			Usage:       "database driver (sqlite or postgres)",
			EnvVars:     []string{"DB_DRIVER"},
			Value:       cfg.DBDriver,
			Destination: &cfg.DBDriver,
		},
		&cli.StringFlag{
			Name:        "database-url",
			Aliases:     []string{"db"},
			Usage:       "SQLite file path or postgres connection URL",
			EnvVars:     []string{"DATABASE_URL"},
			Value:       cfg.DatabaseURL,
			Destination: &cfg.DatabaseURL,
		},
		&cli.IntFlag{
			Name:        "port",
			Aliases:     []string{"p"},
			Usage:       "HTTP listen port",
			EnvVars:     []string{"PORT"},
			Value:       cfg.Port,
			Destination: &cfg.Port,
		},
		&cli.StringFlag{
			Name:        "cors-origins",
			Usage:       "comma separated list of allowed CORS origins",
			EnvVars:     []string{"CORS_ORIGINS"},
			Destination: &corsOrigins,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "debug, info, warn or error",
			EnvVars:     []string{"LOG_LEVEL"},
			Value:       cfg.LogLevel,
			Destination: &cfg.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "text or json",
			EnvVars:     []string{"LOG_FORMAT"},
			Value:       cfg.LogFormat,
			Destination: &cfg.LogFormat,
		},
		&cli.IntFlag{
			Name:        "bcrypt-cost",
			Usage:       "bcrypt work factor for password hashing",
			EnvVars:     []string{"BCRYPT_COST"},
			Value:       cfg.BcryptCost,
			Destination: &cfg.BcryptCost,
		},
	}

	// load finishes the config after flag parsing and builds the logger.
	load := func() (config.Config, *slog.Logger, error) {
		cfg.TokenTTL = time.Duration(tokenMinutes) * time.Minute
		cfg.CORSOrigins = config.SplitOrigins(corsOrigins)

		logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)
		if err != nil {
			return cfg, nil, err
		}
		// Code without an injected logger (httpx error responses) logs
		// through slog's default, so it gets the same handler and level.
		slog.SetDefault(logger)
		return cfg, logger, nil
	}

	serve := func(c *cli.Context) error {
		cfg, logger, err := load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		store, err := openStore(c.Context, cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(c.Context); err != nil {
			return err
		}

		srv, err := server.New(cfg, store, nil, logger)
		if err != nil {
			return err
		}

		// Start blocks until Ctrl+C or SIGTERM cancels the context.
		return srv.Start(c.Context)
	}

	return &cli.App{
		Name:   "blog-api",
		Usage:  "Blog backend with user accounts and bearer token auth",
		Flags:  flags,
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Apply migrations and serve the HTTP API",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Apply pending database migrations and exit",
				Action: func(c *cli.Context) error {
					cfg, logger, err := load()
					if err != nil {
						return err
					}

					store, err := openStore(c.Context, cfg, logger)
					if err != nil {
						return err
					}
					defer store.Close()

					if err := store.Migrate(c.Context); err != nil {
						return err
					}

					version, err := store.Version(c.Context)
					if err != nil {
						return err
					}
					logger.Info("database is up to date", slog.Int64("version", version))
					return nil
				},
			},
		},
	}
}

// openStore connects to the configured database. For a SQLite file the
// parent directory is created first (like `mkdir -p`).
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	if cfg.DBDriver == sqlstore.DriverSQLite && !strings.Contains(cfg.DatabaseURL, ":memory:") {
		path := strings.TrimPrefix(cfg.DatabaseURL, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
	}

	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("database connected",
		slog.String("driver", cfg.DBDriver),
	)
	return store, nil
}
