// Package postgres provides a PostgreSQL-backed domain.PostRepository.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxConns = 20

// NewPool creates a connection pool for dsn and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		category_id BIGINT NOT NULL REFERENCES categories(id),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_active ON posts(active, id);
	CREATE INDEX IF NOT EXISTS idx_posts_user_active ON posts(user_id, active, id);
	CREATE INDEX IF NOT EXISTS idx_posts_category_active ON posts(category_id, active, id);

	INSERT INTO categories (id, name) VALUES (1, 'general') ON CONFLICT (id) DO NOTHING;
	SELECT setval(pg_get_serial_sequence('categories', 'id'), GREATEST((SELECT MAX(id) FROM categories), 1));
`

// Init creates the categories and posts tables when they do not exist and
// seeds the default category.
func Init(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema, pgx.QueryExecModeSimpleProtocol); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
