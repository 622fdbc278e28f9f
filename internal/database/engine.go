package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/tmc/langchaingo/tools/sqldatabase"
	"github.com/tmc/langchaingo/tools/sqldatabase/postgresql"
	"github.com/tmc/langchaingo/tools/sqldatabase/sqlite3"
)

// newEngine opens the langchaingo engine for dialect over an already
// read-only dsn.
func newEngine(dialect Dialect, dsn string, maxOpenConns int) (sqldatabase.Engine, error) {
	switch dialect {
	case DialectSQLite:
		return sqlite3.NewSQLite3(dsn)
	case DialectPostgres:
		engine, err := postgresql.NewPostgreSQL(dsn)
		if err != nil {
			return nil, err
		}
		return postgresEngine{Engine: engine}, nil
	case DialectDuckDB:
		db, err := sql.Open("duckdb", dsn)
		if err != nil {
			return nil, err
		}
		if maxOpenConns > 0 {
			db.SetMaxOpenConns(maxOpenConns)
			db.SetMaxIdleConns(maxOpenConns)
		}
		return NewInformationSchemaEngine(db, DialectDuckDB), nil
	default:
		return nil, fmt.Errorf("unsupported database engine %q", dialect)
	}
}

// postgresEngine renders a full column list in place of the single column
// name the stock engine reports as table info.
type postgresEngine struct {
	sqldatabase.Engine
}

func (e postgresEngine) TableInfo(ctx context.Context, table string) (string, error) {
	return columnsDDL(ctx, e.Engine.Query, "public", table)
}

// InformationSchemaEngine is a sqldatabase.Engine for drivers langchaingo
// ships no engine for. Tables and columns come from information_schema.
type InformationSchemaEngine struct {
	db      *sql.DB
	dialect Dialect
	schema  string
}

func NewInformationSchemaEngine(db *sql.DB, dialect Dialect) *InformationSchemaEngine {
	schema := "main"
	if dialect == DialectPostgres {
		schema = "public"
	}
	return &InformationSchemaEngine{db: db, dialect: dialect, schema: schema}
}

func (e *InformationSchemaEngine) Dialect() string {
	return string(e.dialect)
}

func (e *InformationSchemaEngine) Query(ctx context.Context, query string, args ...any) ([]string, [][]string, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	results := make([][]string, 0)
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		targets := make([]any, len(cols))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, value := range values {
			row[i] = value.String
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, results, nil
}

func (e *InformationSchemaEngine) TableNames(ctx context.Context) ([]string, error) {
	_, rows, err := e.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 ORDER BY table_name`, e.schema)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row[0])
	}
	return names, nil
}

func (e *InformationSchemaEngine) TableInfo(ctx context.Context, table string) (string, error) {
	return columnsDDL(ctx, e.Query, e.schema, table)
}

func (e *InformationSchemaEngine) Close() error {
	return e.db.Close()
}

type queryFunc func(ctx context.Context, query string, args ...any) ([]string, [][]string, error)

func columnsDDL(ctx context.Context, query queryFunc, schema, table string) (string, error) {
	_, rows, err := query(ctx, `SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return "", fmt.Errorf("load columns for %q: %w", table, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: %s", sqldatabase.ErrTableNotFound, table)
	}
	columns := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return "", sqldatabase.ErrInvalidResult
		}
		columns = append(columns, "\t"+quoteIdent(row[0])+" "+row[1])
	}
	return "CREATE TABLE " + quoteIdent(table) + " (\n" + strings.Join(columns, ",\n") + "\n)", nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
