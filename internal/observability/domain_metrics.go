package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatmate_questions_total",
			Help: "Total number of submitted questions by outcome.",
		},
		[]string{"outcome"},
	)
	agentDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatmate_agent_duration_seconds",
			Help:    "Wall-clock time of one agent invocation.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
	)
	sqlExtractedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatmate_sql_extracted_total",
			Help: "Total number of answers rendered with a generated SQL block.",
		},
	)
	databaseOpensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatmate_database_opens_total",
			Help: "Total number of read-only database handle opens by result.",
		},
		[]string{"result"},
	)
	agentToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatmate_agent_tool_calls_total",
			Help: "Total number of agent tool invocations by tool.",
		},
		[]string{"tool"},
	)
	llmStreamChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatmate_llm_stream_chunks_total",
			Help: "Total number of streamed completion chunks received.",
		},
	)
	authFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatmate_auth_failures_total",
			Help: "Total number of rejected API requests by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		agentDurationSeconds,
		sqlExtractedTotal,
		databaseOpensTotal,
		agentToolCallsTotal,
		llmStreamChunksTotal,
		authFailuresTotal,
	)
}

func ObserveQuestion(outcome string, elapsed time.Duration, sqlExtracted bool) {
	questionsTotal.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		agentDurationSeconds.Observe(elapsed.Seconds())
	}
	if sqlExtracted {
		sqlExtractedTotal.Inc()
	}
}

func ObserveDatabaseOpen(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	databaseOpensTotal.WithLabelValues(result).Inc()
}

func ObserveToolCall(tool string) {
	agentToolCallsTotal.WithLabelValues(tool).Inc()
}

func ObserveStreamChunk() {
	llmStreamChunksTotal.Inc()
}

func ObserveAuthFailure(reason string) {
	authFailuresTotal.WithLabelValues(reason).Inc()
}
