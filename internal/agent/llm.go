package agent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// NewLLM returns an OpenAI-compatible chat model. Failed completions come back
// as *TransportError.
func NewLLM(cfg LLMConfig) (llms.Model, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	options := []openai.Option{
		openai.WithToken(strings.TrimSpace(cfg.APIKey)),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if model := strings.TrimSpace(cfg.Model); model != "" {
		options = append(options, openai.WithModel(model))
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		options = append(options, openai.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	client, err := openai.New(options...)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}
	return transportModel{model: client}, nil
}

type transportModel struct {
	model llms.Model
}

func (m transportModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	resp, err := m.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &TransportError{Err: fmt.Errorf("completion request: %w", err)}
	}
	return resp, nil
}

func (m transportModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
