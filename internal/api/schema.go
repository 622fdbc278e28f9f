package api

import (
	"net/http"
)

type schemaTable struct {
	Name       string     `json:"name"`
	DDL        string     `json:"ddl"`
	Columns    []string   `json:"columns"`
	SampleRows [][]string `json:"sample_rows"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Database == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "database dependency is not configured", false, nil)
		return
	}

	handle, err := deps.Database.Handle(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "failed to open database", true, map[string]any{"details": err.Error()})
		return
	}
	schemas, err := handle.DescribeTables(r.Context(), nil)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FETCH_FAILED", "failed to load schema context", true, map[string]any{"details": err.Error()})
		return
	}

	tables := make([]schemaTable, 0, len(schemas))
	for _, schema := range schemas {
		columns := schema.Columns
		if columns == nil {
			columns = []string{}
		}
		rows := schema.SampleRows
		if rows == nil {
			rows = [][]string{}
		}
		tables = append(tables, schemaTable{
			Name:       schema.Name,
			DDL:        schema.DDL,
			Columns:    columns,
			SampleRows: rows,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dialect": handle.Dialect(),
		"tables":  tables,
	})
}
