package nl2sql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/raunakjaimini/chatmate/internal/observability"
)

type OpenAIConfig struct {
	// Model is an OpenAI-compatible chat model, usually built by agent.NewLLM.
	Model     llms.Model
	ModelName string
	Stream    bool
	// OnChunk receives streamed content as it arrives.
	OnChunk func(chunk string)
}

type OpenAITranslator struct {
	model     llms.Model
	modelName string
	stream    bool
	onChunk   func(string)
}

func NewOpenAITranslator(cfg OpenAIConfig) (*OpenAITranslator, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	modelName := strings.TrimSpace(cfg.ModelName)
	if modelName == "" {
		modelName = "llama3-8b-8192"
	}
	return &OpenAITranslator{
		model:     cfg.Model,
		modelName: modelName,
		stream:    cfg.Stream,
		onChunk:   cfg.OnChunk,
	}, nil
}

func (t *OpenAITranslator) Translate(ctx context.Context, req Request) (Result, error) {
	messages, err := buildChatMessages(req)
	if err != nil {
		return Result{}, err
	}

	options := make([]llms.CallOption, 0, 1)
	if t.stream {
		options = append(options, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			observability.ObserveStreamChunk()
			if t.onChunk != nil {
				t.onChunk(string(chunk))
			}
			return nil
		}))
	}

	resp, err := t.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return Result{}, fmt.Errorf("request chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("empty chat completion choices: %w", ErrMalformedResponse)
	}

	sql := stripMarkdownSQL(resp.Choices[0].Content)
	if strings.TrimSpace(sql) == "" {
		return Result{}, fmt.Errorf("model returned empty SQL: %w", ErrMalformedResponse)
	}
	return Result{
		SQL:      sql,
		Provider: "openai-compatible",
		Model:    t.modelName,
	}, nil
}

func buildChatMessages(req Request) ([]llms.MessageContent, error) {
	tablesJSON, err := json.Marshal(req.Tables)
	if err != nil {
		return nil, fmt.Errorf("marshal table context: %w", err)
	}
	dialect := strings.TrimSpace(req.Dialect)
	if dialect == "" {
		dialect = "sqlite"
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	systemPrompt := fmt.Sprintf("You convert natural language analytics questions into a single %s SQL query. "+
		"The database is read-only. "+
		"Return ONLY SQL. No markdown, no explanation.", dialect)
	userPrompt := fmt.Sprintf(
		"Schema and sample context (JSON):\n%s\n\nQuestion:\n%s\n\nRules:\n- Use only listed tables.\n- Prefer explicit columns.\n- Add LIMIT %d unless the question asks otherwise.\n- Output a single SQL query only.",
		string(tablesJSON),
		strings.TrimSpace(req.NaturalLanguage),
		topK,
	)

	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}, nil
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
