package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dfryer1193/paper/shared/db"
	_ "modernc.org/sqlite"
)

const (
	// defaultPath is the default path for the SQLite database
	defaultPath = "./paper.db"
)

// connectionPragmas are applied by the driver to every pooled connection.
// busy_timeout must come first so the connection blocks instead of failing
// while another connection switches the journal mode.
var connectionPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"cache_size(-64000)",
}

type SQLiteConfig struct {
	Path string
}

// NewSQLiteConfig returns a config for the given path, falling back to
// ./paper.db when path is empty
func NewSQLiteConfig(path string) *SQLiteConfig {
	if path == "" {
		path = defaultPath
	}

	return &SQLiteConfig{
		Path: path,
	}
}

// SQLiteDB implements the db.Database interface for SQLite
type SQLiteDB struct {
	dbPath string
	db     *sql.DB
}

var _ db.Database = (*SQLiteDB)(nil)

// NewSQLiteDB creates a new, unconnected SQLite database instance
func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	return &SQLiteDB{
		dbPath: cfg.Path,
	}
}

// DSN returns the driver data source name including connection pragmas
func (s *SQLiteDB) DSN() string {
	params := make([]string, 0, len(connectionPragmas))
	for _, p := range connectionPragmas {
		params = append(params, "_pragma="+p)
	}

	sep := "?"
	if strings.Contains(s.dbPath, "?") {
		sep = "&"
	}
	return s.dbPath + sep + strings.Join(params, "&")
}

// Connect opens the database, verifies it and applies pending migrations
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	conn, err := sql.Open("sqlite", s.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = conn
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB instance
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Ping checks that the database is still reachable
func (s *SQLiteDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not connected")
	}
	return s.db.PingContext(ctx)
}
