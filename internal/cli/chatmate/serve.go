package chatmate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/raunakjaimini/chatmate/internal/agent"
	"github.com/raunakjaimini/chatmate/internal/api"
	"github.com/raunakjaimini/chatmate/internal/auth"
	"github.com/raunakjaimini/chatmate/internal/chat"
	"github.com/raunakjaimini/chatmate/internal/config"
	"github.com/raunakjaimini/chatmate/internal/ui"
)

func (a *App) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question form and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Address = addr
			}
			return a.serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides CHATMATE_HTTP_ADDR)")
	return cmd
}

func (a *App) serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	handler, cleanup, err := a.buildHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting chatmate server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down chatmate server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	select {
	case err := <-serveErr:
		return fmt.Errorf("chatmate server: %w", err)
	default:
		return nil
	}
}

// buildHandler wires the full application, or only the static credential
// error page when the API key is missing.
func (a *App) buildHandler(cfg config.Config, logger *slog.Logger) (http.Handler, func(), error) {
	credential, err := config.RequireCredential(a.lookup, cfg.LLM.APIKeyEnv)
	if err != nil {
		logger.Error("missing llm credential", slog.String("env", cfg.LLM.APIKeyEnv))
		return api.WithMiddleware(ui.MisconfiguredHandler(config.MissingCredentialMessage), logger), func() {}, nil
	}

	cache := newDatabaseCache(cfg, logger)
	cleanup := func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close database", slog.Any("error", err))
		}
	}

	questionAgent, err := agent.New(cfg, credential, cache, logger, nil)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	service := chat.NewService(questionAgent, logger, chat.WithRunningObserver(func(ctx context.Context, question string) {
		logger.InfoContext(ctx, "generating sql query", slog.Int("question_len", len(question)))
	}))

	deps := api.Dependencies{
		Logger:            logger,
		Chat:              service,
		Database:          cache,
		UI:                ui.NewHandler(service, logger),
		Readiness:         api.CheckDatabase(cache),
		DependencyTimeout: 5 * time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("parse static auth keys: %w", err)
		}
		logger.Info("api key auth enabled", slog.Int("keys", validator.Len()))
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}
	return api.NewHandler(cfg, deps), cleanup, nil
}
