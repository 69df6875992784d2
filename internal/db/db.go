package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/hpungsan/abacus/internal/config"
)

// Dialect identifies the storage engine behind a DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DefaultFileName is the SQLite database created under the base directory
// when no DATABASE_URL is configured.
const DefaultFileName = "abacus.db"

// DB is the storage handle injected into the repository. It owns a
// connection pool; each query checks a connection out for one statement.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// New wraps an already opened connection pool. Used by Open and by tests
// that supply their own *sql.DB.
func New(conn *sql.DB, dialect Dialect) *DB {
	return &DB{conn: conn, dialect: dialect}
}

// Init opens the default SQLite database at baseDir/abacus.db and ensures
// the schema exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.abacus.
func Init(baseDir string) (*DB, error) {
	return Open(context.Background(), "", baseDir)
}

// Open connects to the storage engine named by databaseURL and ensures the
// schema exists. An empty URL selects SQLite under baseDir.
func Open(ctx context.Context, databaseURL, baseDir string) (*DB, error) {
	dialect, dsn := ParseDatabaseURL(databaseURL, baseDir)

	var (
		d   *DB
		err error
	)
	switch dialect {
	case DialectPostgres:
		d, err = openPostgres(ctx, dsn)
	default:
		d, err = openSQLite(dsn)
	}
	if err != nil {
		return nil, err
	}

	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// ParseDatabaseURL maps a configured URL to a dialect and driver DSN.
//
//	""                      -> sqlite, <baseDir>/abacus.db
//	postgres://, postgresql:// -> postgres, unchanged
//	sqlite://path, sqlite:path -> sqlite, path
//	anything else           -> sqlite, as given
func ParseDatabaseURL(raw, baseDir string) (Dialect, string) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return DialectSQLite, filepath.Join(baseDir, DefaultFileName)
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DialectPostgres, raw
	case strings.HasPrefix(raw, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(raw, "sqlite://")
	case strings.HasPrefix(raw, "sqlite:"):
		return DialectSQLite, strings.TrimPrefix(raw, "sqlite:")
	default:
		return DialectSQLite, raw
	}
}

func openPostgres(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(conn, DialectPostgres), nil
}

func openSQLite(path string) (*DB, error) {
	isFile := !strings.HasPrefix(path, "file:") && !strings.Contains(path, ":memory:")

	if isFile {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	// Pragmas in the connection string apply to every pooled connection
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=busy_timeout(5000)"
	if isFile {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if isFile {
		if err := verifyWALMode(conn); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return New(conn, DialectSQLite), nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func (d *DB) ConfigurePool(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		d.conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		d.conn.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// Dialect reports which storage engine backs d.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Ping verifies the storage engine is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

// Close releases the connection pool.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Migrate creates the calculations table if it does not exist. Safe to run
// on every startup.
func (d *DB) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if d.dialect == DialectPostgres {
		schema = postgresSchema
	}
	if _, err := d.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema setup failed: %w", err)
	}
	return nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS calculations (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  expression  TEXT NOT NULL,
  result      TEXT NOT NULL,
  created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calculations_created
ON calculations(created_at DESC, id DESC);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS calculations (
  id          BIGSERIAL PRIMARY KEY,
  expression  TEXT NOT NULL,
  result      TEXT NOT NULL,
  created_at  BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calculations_created
ON calculations(created_at DESC, id DESC);
`

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(conn *sql.DB) error {
	var journalMode string
	if err := conn.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}
