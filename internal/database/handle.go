package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/tools/sqldatabase"
)

// Handle is a read-only view over one database.
type Handle struct {
	db            *sqldatabase.SQLDatabase
	dialect       Dialect
	sampleRows    int
	maxResultRows int
}

type Result struct {
	Columns   []string
	Rows      [][]string
	Truncated bool
}

type TableSchema struct {
	Name       string
	DDL        string
	Columns    []string
	SampleRows [][]string
}

var internalTables = map[string]struct{}{
	"sqlite_sequence": {},
	"sqlite_stat1":    {},
	"sqlite_stat4":    {},
}

// NewHandle loads the table list from engine once; tables created later are
// picked up by the next handle the cache opens.
func NewHandle(engine sqldatabase.Engine, dialect Dialect, sampleRows, maxResultRows int) (*Handle, error) {
	if sampleRows < 0 {
		sampleRows = 0
	}
	db, err := sqldatabase.NewSQLDatabase(engine, internalTables)
	if err != nil {
		return nil, err
	}
	db.SampleRowsNumber = sampleRows
	return &Handle{db: db, dialect: dialect, sampleRows: sampleRows, maxResultRows: maxResultRows}, nil
}

func (h *Handle) Dialect() Dialect {
	return h.dialect
}

func (h *Handle) Ping(ctx context.Context) error {
	_, _, err := h.db.Engine.Query(ctx, "SELECT 1")
	return err
}

func (h *Handle) Close() error {
	return h.db.Close()
}

func (h *Handle) TableNames() []string {
	names := append([]string(nil), h.db.TableNames()...)
	sort.Strings(names)
	return names
}

// DescribeTables returns DDL and sample rows for the named tables, or for
// every table when names is empty.
func (h *Handle) DescribeTables(ctx context.Context, names []string) ([]TableSchema, error) {
	names, err := h.resolveTables(names)
	if err != nil {
		return nil, err
	}

	schemas := make([]TableSchema, 0, len(names))
	for _, name := range names {
		ddl, err := h.db.Engine.TableInfo(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load ddl for %q: %w", name, err)
		}
		schema := TableSchema{Name: name, DDL: ddl}
		if h.sampleRows > 0 {
			columns, rows, err := h.db.Engine.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(name), h.sampleRows))
			if err != nil {
				return nil, fmt.Errorf("sample rows from %q: %w", name, err)
			}
			schema.Columns = columns
			schema.SampleRows = rows
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

// TableInfo renders DDL and sample rows as prompt-ready text.
func (h *Handle) TableInfo(ctx context.Context, names []string) (string, error) {
	names, err := h.resolveTables(names)
	if err != nil {
		return "", err
	}
	info, err := h.db.TableInfo(ctx, names)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(info), nil
}

// Query runs sqlText and keeps at most the configured number of rows.
func (h *Handle) Query(ctx context.Context, sqlText string) (Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return Result{}, fmt.Errorf("sql is required")
	}
	columns, rows, err := h.db.Engine.Query(ctx, sqlText)
	if err != nil {
		return Result{}, fmt.Errorf("execute query: %w", err)
	}
	result := Result{Columns: columns, Rows: rows}
	if h.maxResultRows > 0 && len(rows) > h.maxResultRows {
		result.Rows = rows[:h.maxResultRows]
		result.Truncated = true
	}
	return result, nil
}

// QueryText runs sqlText and renders the result as tab separated lines.
func (h *Handle) QueryText(ctx context.Context, sqlText string) (string, error) {
	if strings.TrimSpace(sqlText) == "" {
		return "", fmt.Errorf("sql is required")
	}
	text, err := h.db.Query(ctx, sqlText)
	if err != nil {
		return "", fmt.Errorf("execute query: %w", err)
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if h.maxResultRows > 0 && len(lines)-1 > h.maxResultRows {
		lines = append(lines[:h.maxResultRows+1], fmt.Sprintf("(truncated to %d rows)", h.maxResultRows))
	}
	return strings.Join(lines, "\n"), nil
}

func (h *Handle) resolveTables(names []string) ([]string, error) {
	all := h.TableNames()
	if len(names) == 0 {
		return all, nil
	}
	known := make(map[string]struct{}, len(all))
	for _, name := range all {
		known[name] = struct{}{}
	}
	missing := make([]string, 0)
	for _, name := range names {
		if _, ok := known[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("table names %s not found in database", strings.Join(missing, ", "))
	}
	return names, nil
}
