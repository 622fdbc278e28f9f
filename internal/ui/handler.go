// Package ui serves the single question form.
package ui

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/raunakjaimini/chatmate/internal/chat"

	gomponents "maragu.dev/gomponents"
)

type Submitter interface {
	Submit(ctx context.Context, question string) chat.Outcome
}

type Handler struct {
	chat   Submitter
	logger *slog.Logger
	mux    *http.ServeMux
}

func NewHandler(service Submitter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{chat: service, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /{$}", h.handleIndex)
	h.mux.HandleFunc("POST /{$}", h.handleSubmit)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	renderHTML(w, http.StatusOK, chatPage("", nil))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(r.Context(), "parse question form", slog.Any("error", err))
		renderHTML(w, http.StatusBadRequest, errorPage("invalid form submission"))
		return
	}
	question := r.PostFormValue("question")
	outcome := h.chat.Submit(r.Context(), question)
	renderHTML(w, http.StatusOK, chatPage(question, &outcome))
}

// MisconfiguredHandler answers every request with message and a 500.
func MisconfiguredHandler(message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		renderHTML(w, http.StatusInternalServerError, errorPage(message))
	})
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
