// Package chat runs one question through the agent per submission and turns
// the outcome into something the form can render.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raunakjaimini/chatmate/internal/agent"
	"github.com/raunakjaimini/chatmate/internal/observability"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateSettled State = "settled"
)

const EmptyQuestionWarning = "Please enter a question."

type Outcome struct {
	State    State         `json:"state"`
	Question string        `json:"-"`
	Answer   string        `json:"answer,omitempty"`
	SQL      string        `json:"sql,omitempty"`
	Error    string        `json:"error,omitempty"`
	Warning  string        `json:"warning,omitempty"`
	Elapsed  time.Duration `json:"-"`
}

func (o Outcome) HasSQL() bool {
	return o.SQL != ""
}

type Option func(*Service)

// WithRunningObserver registers fn to be called when a question enters the
// running state, before the agent is invoked.
func WithRunningObserver(fn func(ctx context.Context, question string)) Option {
	return func(s *Service) {
		s.onRunning = fn
	}
}

type Service struct {
	agent     agent.Agent
	logger    *slog.Logger
	onRunning func(ctx context.Context, question string)
	now       func() time.Time
}

func NewService(a agent.Agent, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{agent: a, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit never returns an error: every agent failure is converted to a
// user-facing message on the outcome.
func (s *Service) Submit(ctx context.Context, question string) Outcome {
	if strings.TrimSpace(question) == "" {
		observability.ObserveQuestion("empty", 0, false)
		return Outcome{State: StateIdle, Question: question, Warning: EmptyQuestionWarning}
	}

	if s.onRunning != nil {
		s.onRunning(ctx, question)
	}
	started := s.now()
	answer, err := s.invoke(ctx, question)
	elapsed := s.now().Sub(started)

	outcome := Outcome{State: StateSettled, Question: question, Elapsed: elapsed}
	if err != nil {
		kind := "error"
		if agent.IsValueError(err) {
			kind = "value_error"
			outcome.Error = "An error occurred: " + err.Error()
		} else {
			outcome.Error = "An unexpected error occurred: " + err.Error()
		}
		s.logger.WarnContext(ctx, "agent failed",
			slog.String("kind", kind),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)
		observability.ObserveQuestion(kind, elapsed, false)
		return outcome
	}

	s.logger.DebugContext(ctx, "agent answer",
		slog.String("raw", answer),
		slog.String("upper", strings.ToUpper(answer)),
	)
	outcome.Answer = answer
	if sql, ok := ExtractQuery(answer); ok {
		outcome.SQL = sql
	}
	observability.ObserveQuestion("answered", elapsed, outcome.HasSQL())
	return outcome
}

func (s *Service) invoke(ctx context.Context, question string) (answer string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.ErrorContext(ctx, "agent panicked", slog.Any("panic", recovered))
			err = fmt.Errorf("%v", recovered)
		}
	}()
	return s.agent.Answer(ctx, question)
}

// ExtractQuery treats the whole trimmed answer as SQL when it mentions SELECT
// in any letter case.
func ExtractQuery(answer string) (string, bool) {
	if !strings.Contains(strings.ToUpper(answer), "SELECT") {
		return "", false
	}
	return strings.TrimSpace(answer), true
}
