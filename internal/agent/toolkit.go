package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/raunakjaimini/chatmate/internal/database"
)

const (
	ToolListTables   = "sql_db_list_tables"
	ToolSchema       = "sql_db_schema"
	ToolQuery        = "sql_db_query"
	ToolQueryChecker = "sql_db_query_checker"
)

// SQLToolkit returns the tools the SQL agent may call. Every tool resolves
// the database through source on each call.
func SQLToolkit(llm llms.Model, source database.Source, dialect string, logger *slog.Logger) []tools.Tool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return []tools.Tool{
		queryTool{source: source, logger: logger},
		schemaTool{source: source, logger: logger},
		listTablesTool{source: source, logger: logger},
		queryCheckerTool{llm: llm, dialect: dialect, logger: logger},
	}
}

type listTablesTool struct {
	source database.Source
	logger *slog.Logger
}

func (listTablesTool) Name() string { return ToolListTables }

func (listTablesTool) Description() string {
	return "Input is an empty string, output is a comma-separated list of tables in the database."
}

func (t listTablesTool) Call(ctx context.Context, input string) (string, error) {
	toolStarted(ctx, t.logger, ToolListTables, input)
	handle, err := t.source.Handle(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(handle.TableNames(), ", "), nil
}

type schemaTool struct {
	source database.Source
	logger *slog.Logger
}

func (schemaTool) Name() string { return ToolSchema }

func (schemaTool) Description() string {
	return "Input to this tool is a comma-separated list of tables, output is the schema and sample rows for those tables. " +
		"Be sure that the tables actually exist by calling " + ToolListTables + " first! Example Input: table1, table2, table3"
}

func (t schemaTool) Call(ctx context.Context, input string) (string, error) {
	toolStarted(ctx, t.logger, ToolSchema, input)
	handle, err := t.source.Handle(ctx)
	if err != nil {
		return "", err
	}
	info, err := handle.TableInfo(ctx, splitTableNames(input))
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return info, nil
}

type queryTool struct {
	source database.Source
	logger *slog.Logger
}

func (queryTool) Name() string { return ToolQuery }

func (queryTool) Description() string {
	return "Input to this tool is a detailed and correct SQL query, output is a result from the database. " +
		"If the query is not correct, an error message will be returned. " +
		"If an error is returned, rewrite the query, check the query, and try again. " +
		"If you encounter an issue with an unknown column, use " + ToolSchema + " to query the correct table fields."
}

func (t queryTool) Call(ctx context.Context, input string) (string, error) {
	toolStarted(ctx, t.logger, ToolQuery, input)
	handle, err := t.source.Handle(ctx)
	if err != nil {
		return "", err
	}
	text, err := handle.QueryText(ctx, cleanToolInput(input))
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return text, nil
}

type queryCheckerTool struct {
	llm     llms.Model
	dialect string
	logger  *slog.Logger
}

func (queryCheckerTool) Name() string { return ToolQueryChecker }

func (queryCheckerTool) Description() string {
	return "Use this tool to double check if your query is correct before executing it. " +
		"Always use this tool before executing a query with " + ToolQuery + "!"
}

func (t queryCheckerTool) Call(ctx context.Context, input string) (string, error) {
	toolStarted(ctx, t.logger, ToolQueryChecker, input)
	prompt := fmt.Sprintf(`%s
Double check the %s query above for common mistakes, including:
- Using NOT IN with NULL values
- Using UNION when UNION ALL should have been used
- Using BETWEEN for exclusive ranges
- Data type mismatch in predicates
- Properly quoting identifiers
- Using the correct number of arguments for functions
- Casting to the correct data type
- Using the proper columns for joins

If there are any of the above mistakes, rewrite the query. If there are no mistakes, just reproduce the original query.

Output the final SQL query only.

SQL Query: `, cleanToolInput(input), t.dialect)
	checked, err := llms.GenerateFromSinglePrompt(ctx, t.llm, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(checked), nil
}

func splitTableNames(input string) []string {
	parts := strings.Split(cleanToolInput(input), ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.Trim(strings.TrimSpace(part), "\"'`")
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// cleanToolInput strips the quoting models tend to wrap tool input in.
func cleanToolInput(input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
	}
	return strings.Trim(strings.TrimSpace(trimmed), "\"`")
}
