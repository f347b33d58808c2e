package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wifisurvey/internal/config"
)

const driverName = "sqlite3"

// Open returns the explicitly owned store handle for the process. Callers
// close it with Close at shutdown.
func Open(cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.SQLiteDriver != "" && cfg.SQLiteDriver != driverName {
		return nil, fmt.Errorf("db open: unsupported driver %q (only %s)", cfg.SQLiteDriver, driverName)
	}

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(NewConnector(dsn, logger, cfg.SQLiteLogStatements))

	// SQLite serializes writers; a single connection avoids "database is locked".
	if cfg.SQLiteMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteMaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.SQLiteMaxIdleConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}

	// Validate connectivity early
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	// Ensure directory exists for file-backed sqlite db
	path := cfg.SQLitePath
	if path == "" {
		return "", fmt.Errorf("db open: empty sqlite path")
	}
	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir != "." && !strings.HasPrefix(path, "file::memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// - foreign_keys=on: cascades from clients to locations to measurements
	// - busy_timeout: helps with "database is locked" when the CLI and server share the file
	// - journal_mode=WAL: readers do not block the single writer
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	// If caller provided something like "file:/data/app.db?x=y" as Path, don’t double-wrap
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
