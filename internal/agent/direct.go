package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raunakjaimini/chatmate/internal/database"
	"github.com/raunakjaimini/chatmate/internal/nl2sql"
)

type DirectOptions struct {
	TopK   int
	Logger *slog.Logger
}

// DirectAgent puts the whole schema into one prompt and answers with the SQL
// the model returns.
type DirectAgent struct {
	translator nl2sql.Translator
	source     database.Source
	topK       int
	logger     *slog.Logger
}

func NewDirectAgent(translator nl2sql.Translator, source database.Source, opts DirectOptions) *DirectAgent {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DirectAgent{
		translator: translator,
		source:     source,
		topK:       opts.TopK,
		logger:     logger,
	}
}

func (a *DirectAgent) Answer(ctx context.Context, question string) (string, error) {
	handle, err := a.source.Handle(ctx)
	if err != nil {
		return "", err
	}
	schemas, err := handle.DescribeTables(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("describe tables: %w", err)
	}

	tables := make([]nl2sql.TableContext, 0, len(schemas))
	for _, schema := range schemas {
		tables = append(tables, nl2sql.TableContext{
			TableName:  schema.Name,
			DDL:        schema.DDL,
			Columns:    schema.Columns,
			SampleRows: schema.SampleRows,
		})
	}

	result, err := a.translator.Translate(ctx, nl2sql.Request{
		Dialect:         string(handle.Dialect()),
		NaturalLanguage: question,
		Tables:          tables,
		TopK:            a.topK,
	})
	if err != nil {
		if errors.Is(err, nl2sql.ErrMalformedResponse) {
			return "", &ParseError{Err: err}
		}
		var transportErr *TransportError
		if ctx.Err() != nil || errors.As(err, &transportErr) {
			return "", err
		}
		return "", &TransportError{Err: err}
	}
	a.logger.DebugContext(ctx, "direct translation",
		slog.String("provider", result.Provider),
		slog.String("model", result.Model),
		slog.Int("tables", len(tables)),
	)
	return result.SQL, nil
}
