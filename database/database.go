package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/postgres"
	"github.com/sagarc03/zipstream/database/sqlite"
)

const (
	TypeNone     = "none"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Config holds the configuration for connecting to a history backend.
type Config struct {
	// Type specifies the database type: "none", "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=none sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required_unless=Type none"`
	// Tables holds the table names
	Tables zipstream.Tables `mapstructure:"tables"`
	// AutoMigrate creates missing tables on startup
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// Enabled reports whether a history backend is configured.
func (c Config) Enabled() bool {
	return c.Type != "" && c.Type != TypeNone
}

// Database is a connected history backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() zipstream.DownloadRepo
	Close() error
}

// Connect opens the configured backend. It does not migrate or validate the
// schema; see Open for the full startup sequence.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var (
		db  Database
		err error
	)

	switch cfg.Type {
	case TypeSQLite:
		db, err = sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case TypePostgres:
		db, err = postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects, pings, optionally migrates and validates the schema.
// The caller must Close the returned Database.
func Open(ctx context.Context, cfg Config) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err = db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate database schema: %w", err)
	}

	return db, nil
}
