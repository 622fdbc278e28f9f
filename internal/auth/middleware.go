package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/raunakjaimini/chatmate/internal/observability"
)

// Credential schemes a caller may present a chatmate key with.
const (
	SchemeHeader = "x-api-key"
	SchemeBearer = "bearer"
)

type callerKey struct{}

// Caller is the authenticated principal of one API request.
type Caller struct {
	Identity
	Scheme string
}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}

// Middleware guards the question and schema endpoints with static API keys.
// Failed attempts are answered with the API error envelope and counted by
// reason.
func Middleware(logger *slog.Logger, validator APIKeyValidator) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, scheme := presentedKey(r)
			if key == "" {
				observability.ObserveAuthFailure("missing")
				rejectCaller(w, r, scheme, "missing API key")
				return
			}

			identity, ok := validator.Validate(r.Context(), key)
			if !ok {
				observability.ObserveAuthFailure("invalid")
				logger.WarnContext(r.Context(), "rejected chatmate key",
					slog.String("scheme", scheme),
					slog.String("path", r.URL.Path),
				)
				rejectCaller(w, r, scheme, "invalid API key")
				return
			}

			logger.DebugContext(r.Context(), "caller authenticated",
				slog.String("caller", identity.Name),
				slog.String("scheme", scheme),
			)
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), Caller{Identity: identity, Scheme: scheme})))
		})
	}
}

// presentedKey prefers X-API-Key over an Authorization bearer token. scheme
// is empty when neither header was sent.
func presentedKey(r *http.Request) (key, scheme string) {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key, SchemeHeader
	}
	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	if authorization == "" {
		return "", ""
	}
	token, found := strings.CutPrefix(authorization, "Bearer ")
	if !found {
		scheme, _, _ = strings.Cut(authorization, " ")
		return "", scheme
	}
	return strings.TrimSpace(token), SchemeBearer
}

func rejectCaller(w http.ResponseWriter, r *http.Request, scheme, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="chatmate"`)
	w.WriteHeader(http.StatusUnauthorized)
	details := map[string]any{
		"scheme":           scheme,
		"accepted_schemes": []string{SchemeHeader, SchemeBearer},
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error_code": "UNAUTHORIZED",
		"message":    message,
		"retryable":  false,
		"context":    details,
		"trace_id":   observability.TraceIDFromContext(r.Context()),
	})
}
