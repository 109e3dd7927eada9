package app

import (
	"context"
	"database/sql"
	"fmt"

	"leadline/internal/buyer"
	"leadline/internal/config"
	"leadline/internal/db"
	"leadline/internal/ledger"
	"leadline/internal/migrate"
	"leadline/internal/pipeline"
)

// Options control how a workspace is opened.
type Options struct {
	Workspace string
	// ForceMock overrides the configured mode with the offline mock client.
	ForceMock bool
}

// Context bundles the opened workspace: database, config and pipeline.
type Context struct {
	DB       *sql.DB
	Config   *config.Config
	Ledger   ledger.Ledger
	Pipeline *pipeline.Pipeline
}

// Open ensures the workspace exists, migrates the database, loads the config
// (seeding defaults when the file is absent) and wires the pipeline with the
// configured buyer client. The caller owns Close.
func Open(ctx context.Context, opts Options) (*Context, error) {
	if _, err := db.EnsureWorkspace(opts.Workspace); err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: opts.Workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.LoadOptional(opts.Workspace)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if opts.ForceMock {
		cfg.Buyer.Mode = config.ModeMock
	}
	if err := cfg.Validate(); err != nil {
		conn.Close()
		return nil, err
	}
	p := pipeline.New(conn, cfg, buyer.New(cfg))
	return &Context{
		DB:       conn,
		Config:   cfg,
		Ledger:   ledger.Ledger{DB: conn},
		Pipeline: p,
	}, nil
}

// Close releases the database handle.
func (c *Context) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
