package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso / remote libSQL driver
	_ "modernc.org/sqlite"                               // Embedded SQLite driver
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Dialect selects the SQL flavour used by repositories and migrations.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DefaultSQLiteURL is used when the sqlite driver is selected without a DATABASE_URL.
const DefaultSQLiteURL = "file:securelink.db"

// NewConnection opens the database for the given driver and waits until it answers a ping.
// Supported drivers are "postgres" and "sqlite"; a sqlite URL starting with libsql:// or
// wss:// is opened with the libSQL client instead.
func NewConnection(ctx context.Context, driver, databaseURL string) (*sql.DB, Dialect, error) {
	var (
		driverName string
		dialect    Dialect
	)

	switch driver {
	case "postgres", "postgresql":
		driverName, dialect = "postgres", DialectPostgres
	case "sqlite", "sqlite3":
		dialect = DialectSQLite
		if databaseURL == "" {
			databaseURL = DefaultSQLiteURL
		}
		if strings.HasPrefix(databaseURL, "libsql://") || strings.HasPrefix(databaseURL, "wss://") {
			driverName = "libsql"
		} else {
			driverName = "sqlite"
			databaseURL = sqliteDSN(databaseURL)
		}
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driverName, databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite allows a single writer; one connection serializes writes instead of
		// surfacing SQLITE_BUSY to callers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	backoff := retry.WithMaxRetries(4, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			slog.Warn("database not ready", "driver", driverName, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	return db, dialect, nil
}

// RunMigrations applies the embedded goose migrations for the dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	gooseDialect := goose.DialectPostgres
	dir := "migrations/postgres"
	if dialect == DialectSQLite {
		gooseDialect = goose.DialectSQLite3
		dir = "migrations/sqlite"
	}

	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	slog.Info("database migrations completed", "applied", len(results), "version", version)
	return nil
}

// sqliteDSN enables foreign keys (for ON DELETE CASCADE) and a sortable time format
// unless the caller already set them.
func sqliteDSN(dsn string) string {
	params := []struct{ marker, param string }{
		{"foreign_keys", "_pragma=foreign_keys(1)"},
		{"_time_format", "_time_format=sqlite"},
	}
	for _, p := range params {
		if strings.Contains(dsn, p.marker) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.param
	}
	return dsn
}
