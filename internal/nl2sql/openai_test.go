package nl2sql

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

func TestStripMarkdownSQL(t *testing.T) {
	got := stripMarkdownSQL("```sql\nSELECT 1;\n```")
	if got != "SELECT 1;" {
		t.Fatalf("stripMarkdownSQL() = %q", got)
	}
}

func TestTranslateStreamsDeltas(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotPayload)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"SELECT COUNT(*) \"}}]}\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"FROM customers;\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	chunks := make([]string, 0)
	translator, err := NewOpenAITranslator(OpenAIConfig{
		Model:   newCompatibleModel(t, srv.URL+"/openai/v1"),
		Stream:  true,
		OnChunk: func(chunk string) { chunks = append(chunks, chunk) },
	})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}

	result, err := translator.Translate(context.Background(), Request{
		Dialect:         "sqlite",
		NaturalLanguage: "How many rows are in the customers table?",
		Tables:          []TableContext{{TableName: "customers", Columns: []string{"id", "name"}}},
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT COUNT(*) FROM customers;" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Model != "llama3-8b-8192" {
		t.Fatalf("Model = %q", result.Model)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks = %#v", chunks)
	}
	if gotAuth != "Bearer gsk_test" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotPayload["stream"] != true {
		t.Fatalf("payload stream = %#v", gotPayload["stream"])
	}
	messages, _ := gotPayload["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %#v", gotPayload["messages"])
	}
	if !strings.Contains(string(mustJSON(t, messages[0])), "single sqlite SQL query") {
		t.Fatalf("system message = %#v", messages[0])
	}
}

func TestTranslateWithoutStreaming(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotPayload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"`+"```sql\\nSELECT 1;\\n```"+`"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{Model: newCompatibleModel(t, srv.URL)})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	result, err := translator.Translate(context.Background(), Request{NaturalLanguage: "one"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT 1;" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if _, ok := gotPayload["stream"]; ok {
		t.Fatalf("stream should not be requested: %#v", gotPayload["stream"])
	}
}

func TestTranslateMarksMalformedResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"  "}}]}`)
	}))
	defer srv.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{Model: newCompatibleModel(t, srv.URL)})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	_, err = translator.Translate(context.Background(), Request{NaturalLanguage: "one"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Translate() error = %v, want ErrMalformedResponse", err)
	}

	empty, err := NewOpenAITranslator(OpenAIConfig{Model: choicelessModel{}})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	if _, err := empty.Translate(context.Background(), Request{NaturalLanguage: "one"}); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Translate() error = %v, want ErrMalformedResponse", err)
	}
}

func TestTranslateSurfacesHTTPFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{Model: newCompatibleModel(t, srv.URL)})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	_, err = translator.Translate(context.Background(), Request{NaturalLanguage: "one"})
	if err == nil || errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Translate() error = %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error = %v", err)
	}
}

func TestNewOpenAITranslatorRequiresModel(t *testing.T) {
	if _, err := NewOpenAITranslator(OpenAIConfig{ModelName: "llama3-8b-8192"}); err == nil {
		t.Fatal("expected error for missing chat model")
	}
}

type choicelessModel struct{}

func (choicelessModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{}, nil
}

func (m choicelessModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newCompatibleModel(t *testing.T, baseURL string) *openai.LLM {
	t.Helper()
	model, err := openai.New(
		openai.WithToken("gsk_test"),
		openai.WithModel("llama3-8b-8192"),
		openai.WithBaseURL(baseURL),
	)
	if err != nil {
		t.Fatalf("openai.New() error = %v", err)
	}
	return model
}

func mustJSON(t *testing.T, value any) []byte {
	t.Helper()
	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}
