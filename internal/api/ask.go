package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/raunakjaimini/chatmate/internal/auth"
)

type askRequest struct {
	Question string `json:"question"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "question answering is not configured", false, nil)
		return
	}

	var req askRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}

	if caller, ok := auth.CallerFromContext(r.Context()); ok && deps.Logger != nil {
		deps.Logger.InfoContext(r.Context(), "question received", slog.String("caller", caller.Name))
	}
	outcome := deps.Chat.Submit(r.Context(), req.Question)
	writeJSON(w, http.StatusOK, map[string]any{
		"state":   outcome.State,
		"answer":  outcome.Answer,
		"sql":     outcome.SQL,
		"error":   outcome.Error,
		"warning": outcome.Warning,
	})
}
