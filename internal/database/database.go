// Package database opens read-only handles over the analytics database and
// memoizes them for a bounded time window.
package database

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectDuckDB   Dialect = "duckdb"
	DialectPostgres Dialect = "postgres"
)

type Config struct {
	Engine        string
	Path          string
	MaxOpenConns  int
	SampleRows    int
	MaxResultRows int
}

// Open connects to the configured database in read-only mode and verifies the
// connection. A missing or unreadable file surfaces as the driver's error.
func Open(ctx context.Context, cfg Config) (*Handle, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	dialect := Dialect(strings.ToLower(strings.TrimSpace(cfg.Engine)))
	if dialect == "" {
		dialect = DialectSQLite
	}

	dsn, err := readOnlyDSN(dialect, cfg.Path)
	if err != nil {
		return nil, err
	}
	engine, err := newEngine(dialect, dsn, cfg.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, _, err := engine.Query(pingCtx, "SELECT 1"); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	handle, err := NewHandle(engine, dialect, cfg.SampleRows, cfg.MaxResultRows)
	if err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("load %s tables: %w", dialect, err)
	}
	return handle, nil
}

func readOnlyDSN(dialect Dialect, path string) (string, error) {
	switch dialect {
	case DialectSQLite:
		return sqliteReadOnlyDSN(path)
	case DialectDuckDB:
		return duckdbReadOnlyDSN(path)
	case DialectPostgres:
		return postgresReadOnlyDSN(path)
	default:
		return "", fmt.Errorf("unsupported database engine %q", dialect)
	}
}

func sqliteReadOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	params := url.Values{}
	params.Set("mode", "ro")
	params.Set("_query_only", "true")
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: params.Encode()}
	return u.String(), nil
}

func duckdbReadOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	params := url.Values{}
	params.Set("access_mode", "read_only")
	return abs + "?" + params.Encode(), nil
}

func postgresReadOnlyDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse postgres dsn: %w", err)
		}
		params := u.Query()
		params.Set("default_transaction_read_only", "on")
		u.RawQuery = params.Encode()
		return u.String(), nil
	}
	return dsn + " default_transaction_read_only=on", nil
}
