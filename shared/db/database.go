package db

import (
	"context"
	"database/sql"
)

// Database is a connectable SQL backend that owns its *sql.DB.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
	Ping(ctx context.Context) error
}
