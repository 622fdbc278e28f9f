package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/raunakjaimini/chatmate/internal/database"
	"github.com/raunakjaimini/chatmate/internal/observability"
)

// IterationLimitAnswer is returned in place of an answer when the agent runs
// out of steps.
const IterationLimitAnswer = "Agent stopped due to iteration limit or time limit."

type SQLAgentOptions struct {
	Dialect       string
	MaxIterations int
	TopK          int
	Verbose       bool
	Streaming     bool
	Logger        *slog.Logger
	Stream        io.Writer
}

// SQLAgent is a zero-shot ReAct agent that explores the database through the
// SQL toolkit before settling on an answer.
type SQLAgent struct {
	executor *agents.Executor
	logger   *slog.Logger
}

func NewSQLAgent(llm llms.Model, source database.Source, opts SQLAgentOptions) *SQLAgent {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 15
	}
	dialect := strings.TrimSpace(opts.Dialect)
	if dialect == "" {
		dialect = string(database.DialectSQLite)
	}

	agentOptions := []agents.Option{
		agents.WithMaxIterations(maxIterations),
		agents.WithPromptPrefix(sqlPromptPrefix(dialect, opts.TopK)),
		agents.WithParserErrorHandler(agents.NewParserErrorHandler(nil)),
	}
	// Attaching a handler is what makes the agent request streamed completions.
	if opts.Verbose || opts.Streaming {
		agentOptions = append(agentOptions, agents.WithCallbacksHandler(&logHandler{
			logger:  logger,
			verbose: opts.Verbose,
			stream:  opts.Stream,
		}))
	}

	toolkit := SQLToolkit(llm, source, dialect, logger)
	oneShot := agents.NewOneShotAgent(llm, toolkit, agentOptions...)
	return &SQLAgent{
		executor: agents.NewExecutor(oneShot, agentOptions...),
		logger:   logger,
	}
}

func (a *SQLAgent) Answer(ctx context.Context, question string) (string, error) {
	outputs, err := chains.Call(ctx, a.executor, map[string]any{"input": question})
	if errors.Is(err, agents.ErrNotFinished) {
		a.logger.WarnContext(ctx, "agent hit iteration limit")
		return IterationLimitAnswer, nil
	}
	if err != nil {
		return "", classifyAgentError(err)
	}
	answer, ok := outputs["output"].(string)
	if !ok {
		return "", &ParseError{Err: fmt.Errorf("agent returned no answer")}
	}
	return strings.TrimSpace(answer), nil
}

func classifyAgentError(err error) error {
	var transportErr *TransportError
	switch {
	case errors.As(err, &transportErr):
		return err
	case errors.Is(err, agents.ErrUnableToParseOutput),
		errors.Is(err, agents.ErrAgentNoReturn),
		errors.Is(err, agents.ErrExecutorInputNotString):
		return &ParseError{Err: err}
	default:
		return err
	}
}

func sqlPromptPrefix(dialect string, topK int) string {
	if topK <= 0 {
		topK = 10
	}
	return fmt.Sprintf(`You are an agent designed to interact with a SQL database.
Given an input question, create a syntactically correct %s query to run, then look at the results of the query and return the answer.
Unless the user specifies a specific number of examples they wish to obtain, always limit your query to at most %d results.
You can order the results by a relevant column to return the most interesting examples in the database.
Never query for all the columns from a specific table, only ask for the relevant columns given the question.
You have access to tools for interacting with the database.
Only use the below tools. Only use the information returned by the below tools to construct your final answer.
You MUST double check your query before executing it. If you get an error while executing a query, rewrite the query and try again.

DO NOT make any DML statements (INSERT, UPDATE, DELETE, DROP etc.) to the database.

If the question does not seem related to the database, just return "I don't know" as the answer.

{{.tool_descriptions}}`, dialect, topK)
}

type logHandler struct {
	callbacks.SimpleHandler
	logger  *slog.Logger
	verbose bool
	stream  io.Writer
}

func (h *logHandler) HandleStreamingFunc(ctx context.Context, chunk []byte) {
	observability.ObserveStreamChunk()
	h.logger.DebugContext(ctx, "llm chunk", slog.String("chunk", string(chunk)))
	if h.stream != nil {
		_, _ = h.stream.Write(chunk)
	}
}

func (h *logHandler) HandleAgentAction(ctx context.Context, action schema.AgentAction) {
	if !h.verbose {
		return
	}
	h.logger.InfoContext(ctx, "agent action", slog.String("tool", action.Tool), slog.String("input", action.ToolInput))
}

func (h *logHandler) HandleAgentFinish(ctx context.Context, finish schema.AgentFinish) {
	if !h.verbose {
		return
	}
	h.logger.InfoContext(ctx, "agent finished", slog.Any("output", finish.ReturnValues["output"]))
}
