package nl2sql

import (
	"context"
	"errors"
)

// ErrMalformedResponse marks completions that arrived but could not be used.
var ErrMalformedResponse = errors.New("malformed completion response")

type TableContext struct {
	TableName  string     `json:"table_name"`
	DDL        string     `json:"ddl,omitempty"`
	Columns    []string   `json:"columns"`
	SampleRows [][]string `json:"sample_rows"`
}

type Request struct {
	Dialect         string         `json:"dialect"`
	NaturalLanguage string         `json:"natural_language"`
	Tables          []TableContext `json:"tables"`
	TopK            int            `json:"top_k"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
