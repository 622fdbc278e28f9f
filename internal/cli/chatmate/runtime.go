package chatmate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/raunakjaimini/chatmate/internal/config"
	"github.com/raunakjaimini/chatmate/internal/database"
	"github.com/raunakjaimini/chatmate/internal/observability"
)

func (a *App) loadConfig() (config.Config, *slog.Logger, error) {
	if len(a.dotEnv) > 0 {
		if err := config.LoadDotEnv(a.dotEnv...); err != nil {
			return config.Config{}, nil, err
		}
	}
	cfg, err := config.Load("chatmate", a.lookup)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Database.Path, err = a.resolveDatabasePath(cfg.Database.Engine, cfg.Database.Path)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, observability.NewLogger(cfg, a.stderr), nil
}

// resolveDatabasePath anchors relative file paths next to the executable.
func (a *App) resolveDatabasePath(engine, path string) (string, error) {
	if engine == string(database.DialectPostgres) || filepath.IsAbs(path) {
		return path, nil
	}
	executable, err := a.execPath()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(executable), path), nil
}

func newDatabaseCache(cfg config.Config, logger *slog.Logger) *database.Cache {
	dbConfig := database.Config{
		Engine:        cfg.Database.Engine,
		Path:          cfg.Database.Path,
		MaxOpenConns:  cfg.Database.MaxOpenConns,
		SampleRows:    cfg.Database.SampleRows,
		MaxResultRows: cfg.Database.MaxResultRows,
	}
	return database.NewCache(func(ctx context.Context) (*database.Handle, error) {
		return database.Open(ctx, dbConfig)
	}, cfg.Database.CacheTTL, logger)
}
