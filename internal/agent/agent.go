// Package agent turns a natural-language question into an answer by driving a
// hosted language model against the read-only analytics database.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/raunakjaimini/chatmate/internal/config"
	"github.com/raunakjaimini/chatmate/internal/database"
	"github.com/raunakjaimini/chatmate/internal/nl2sql"
	"github.com/raunakjaimini/chatmate/internal/observability"
)

type Agent interface {
	Answer(ctx context.Context, question string) (string, error)
}

// ParseError reports model output that could not be turned into an answer.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed call to the hosted completion API.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValueError reports whether err belongs to the "bad value" bucket.
func IsValueError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// New builds the agent selected by cfg.Agent.Mode. stream, when non-nil,
// receives model output as it is generated.
func New(cfg config.Config, credential string, source database.Source, logger *slog.Logger, stream io.Writer) (Agent, error) {
	if source == nil {
		return nil, fmt.Errorf("database source is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Agent.Mode))
	if mode != config.AgentModeReAct && mode != config.AgentModeDirect && mode != "" {
		return nil, fmt.Errorf("unsupported agent mode %q", cfg.Agent.Mode)
	}
	llm, err := NewLLM(LLMConfig{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  credential,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	if mode == config.AgentModeDirect {
		translator, err := nl2sql.NewOpenAITranslator(nl2sql.OpenAIConfig{
			Model:     llm,
			ModelName: cfg.LLM.Model,
			Stream:    cfg.LLM.Streaming,
			OnChunk:   chunkSink(logger, stream),
		})
		if err != nil {
			return nil, fmt.Errorf("build translator: %w", err)
		}
		return NewDirectAgent(translator, source, DirectOptions{
			TopK:   cfg.Agent.TopK,
			Logger: logger,
		}), nil
	}
	return NewSQLAgent(llm, source, SQLAgentOptions{
		Dialect:       cfg.Database.Engine,
		MaxIterations: cfg.Agent.MaxIterations,
		TopK:          cfg.Agent.TopK,
		Verbose:       cfg.Agent.Verbose,
		Streaming:     cfg.LLM.Streaming,
		Logger:        logger,
		Stream:        stream,
	}), nil
}

func chunkSink(logger *slog.Logger, stream io.Writer) func(string) {
	return func(chunk string) {
		logger.Debug("llm chunk", slog.String("chunk", chunk))
		if stream != nil {
			_, _ = io.WriteString(stream, chunk)
		}
	}
}

// toolStarted records a tool invocation.
func toolStarted(ctx context.Context, logger *slog.Logger, name, input string) {
	observability.ObserveToolCall(name)
	logger.DebugContext(ctx, "agent tool call", slog.String("tool", name), slog.String("input", input))
}
