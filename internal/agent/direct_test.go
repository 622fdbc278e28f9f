package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/raunakjaimini/chatmate/internal/nl2sql"
)

func TestDirectAgentSendsSchemaContext(t *testing.T) {
	translator := &fakeTranslator{result: nl2sql.Result{SQL: "SELECT COUNT(*) FROM customers;"}}
	agent := NewDirectAgent(translator, seededSource(t), DirectOptions{TopK: 5})

	answer, err := agent.Answer(context.Background(), "How many customers?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "SELECT COUNT(*) FROM customers;" {
		t.Fatalf("answer = %q", answer)
	}
	if translator.req.Dialect != "sqlite" || translator.req.TopK != 5 {
		t.Fatalf("request = %#v", translator.req)
	}
	if len(translator.req.Tables) != 2 || translator.req.Tables[0].TableName != "customers" {
		t.Fatalf("tables = %#v", translator.req.Tables)
	}
	if len(translator.req.Tables[0].SampleRows) != 2 {
		t.Fatalf("sample rows = %#v", translator.req.Tables[0].SampleRows)
	}
}

func TestDirectAgentClassifiesTranslatorErrors(t *testing.T) {
	malformed := NewDirectAgent(&fakeTranslator{err: fmt.Errorf("decode: %w", nl2sql.ErrMalformedResponse)}, seededSource(t), DirectOptions{})
	if _, err := malformed.Answer(context.Background(), "q"); !IsValueError(err) {
		t.Fatalf("malformed response error = %v, want value error", err)
	}

	failed := NewDirectAgent(&fakeTranslator{err: errors.New("chat completion failed status=500")}, seededSource(t), DirectOptions{})
	_, err := failed.Answer(context.Background(), "q")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want TransportError", err)
	}
}

type fakeTranslator struct {
	req    nl2sql.Request
	result nl2sql.Result
	err    error
}

func (f *fakeTranslator) Translate(_ context.Context, req nl2sql.Request) (nl2sql.Result, error) {
	f.req = req
	if f.err != nil {
		return nl2sql.Result{}, f.err
	}
	return f.result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
