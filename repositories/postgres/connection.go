package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/terrace/config"
	"go.uber.org/zap"
)

const (
	connectTimeout = 5 * time.Second
	healthTimeout  = 2 * time.Second
)

// schema holds the single table the user store needs. Emails are stored
// normalized, so the plain unique constraint is case-insensitive in effect.
const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'USER' CHECK (role IN ('USER', 'ADMIN')),
		created_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
	);
`

// DB is the user store's connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB opens a pool and verifies it answers within connectTimeout
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to reach database at %s: %w", cfg.LogString(), err)
	}

	logger.Info("user store connected", zap.String("connection", cfg.LogString()))
	return &DB{DB: pool, logger: logger}, nil
}

// NewDBFromConn wraps an already opened pool, such as one from go-sqlmock
func NewDBFromConn(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// Close closes the pool
func (db *DB) Close() error {
	db.logger.Info("closing user store connection")
	return db.DB.Close()
}

// HealthCheck pings the pool and runs a trivial query
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("user store unreachable: %w", err)
	}
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("user store query failed: %w", err)
	}
	return nil
}

// InitSchema creates the users table if it does not exist
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	db.logger.Info("user store schema ready")
	return nil
}
