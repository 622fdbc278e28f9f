package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("chatmate", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8501" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Database.Engine != "sqlite" {
		t.Fatalf("Database.Engine = %q", cfg.Database.Engine)
	}
	if cfg.Database.Path != "analytics_db" {
		t.Fatalf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Database.CacheTTL != 2*time.Hour {
		t.Fatalf("Database.CacheTTL = %s", cfg.Database.CacheTTL)
	}
	if cfg.LLM.Model != "llama3-8b-8192" {
		t.Fatalf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKeyEnv != "GROQ_API_KEY" {
		t.Fatalf("LLM.APIKeyEnv = %q", cfg.LLM.APIKeyEnv)
	}
	if !cfg.LLM.Streaming {
		t.Fatal("LLM.Streaming should default to true")
	}
	if cfg.Agent.Mode != AgentModeReAct {
		t.Fatalf("Agent.Mode = %q", cfg.Agent.Mode)
	}
	if !cfg.Agent.Verbose {
		t.Fatal("Agent.Verbose should default to true in dev")
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false")
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("chatmate", mapLookup(map[string]string{"CHATMATE_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Observability.LogJSON {
		t.Fatal("LogJSON should default to true in prod")
	}
	if cfg.Agent.Verbose {
		t.Fatal("Agent.Verbose should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"CHATMATE_PROFILE":              "test",
		"CHATMATE_SERVICE_NAME":         "chatmate-custom",
		"CHATMATE_HTTP_ADDR":            ":9999",
		"CHATMATE_HTTP_READ_TIMEOUT":    "2s",
		"CHATMATE_DB_ENGINE":            "DuckDB",
		"CHATMATE_DB_PATH":              "/data/warehouse.duckdb",
		"CHATMATE_DB_CACHE_TTL":         "30m",
		"CHATMATE_DB_MAX_OPEN_CONNS":    "8",
		"CHATMATE_DB_SAMPLE_ROWS":       "5",
		"CHATMATE_DB_MAX_RESULT_ROWS":   "50",
		"CHATMATE_LLM_BASE_URL":         "https://api.example.com/v1",
		"CHATMATE_LLM_MODEL":            "llama3-70b-8192",
		"CHATMATE_LLM_API_KEY_ENV":      "OPENAI_API_KEY",
		"CHATMATE_LLM_STREAMING":        "false",
		"CHATMATE_LLM_TIMEOUT":          "45s",
		"CHATMATE_AGENT_MODE":           "direct",
		"CHATMATE_AGENT_MAX_ITERATIONS": "6",
		"CHATMATE_AGENT_TOP_K":          "3",
		"CHATMATE_AGENT_VERBOSE":        "true",
		"CHATMATE_LOG_LEVEL":            "error",
		"CHATMATE_AUTH_REQUIRED":        "true",
		"CHATMATE_AUTH_STATIC_KEYS":     "k1:alice",
	})
	cfg, err := Load("chatmate", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "chatmate-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Database.Engine != "duckdb" {
		t.Fatalf("Database.Engine = %q", cfg.Database.Engine)
	}
	if cfg.Database.Path != "/data/warehouse.duckdb" {
		t.Fatalf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Database.CacheTTL != 30*time.Minute {
		t.Fatalf("Database.CacheTTL = %s", cfg.Database.CacheTTL)
	}
	if cfg.Database.MaxOpenConns != 8 || cfg.Database.SampleRows != 5 || cfg.Database.MaxResultRows != 50 {
		t.Fatalf("Database = %+v", cfg.Database)
	}
	if cfg.LLM.BaseURL != "https://api.example.com/v1" {
		t.Fatalf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "llama3-70b-8192" {
		t.Fatalf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKeyEnv != "OPENAI_API_KEY" {
		t.Fatalf("LLM.APIKeyEnv = %q", cfg.LLM.APIKeyEnv)
	}
	if cfg.LLM.Streaming {
		t.Fatal("LLM.Streaming = true, want false")
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Fatalf("LLM.Timeout = %s", cfg.LLM.Timeout)
	}
	if cfg.Agent.Mode != AgentModeDirect {
		t.Fatalf("Agent.Mode = %q", cfg.Agent.Mode)
	}
	if cfg.Agent.MaxIterations != 6 || cfg.Agent.TopK != 3 || !cfg.Agent.Verbose {
		t.Fatalf("Agent = %+v", cfg.Agent)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required || cfg.Auth.StaticKeys != "k1:alice" {
		t.Fatalf("Auth = %+v", cfg.Auth)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"CHATMATE_PROFILE": "oops"},
		{"CHATMATE_HTTP_READ_TIMEOUT": "NaN"},
		{"CHATMATE_DB_ENGINE": "oracle"},
		{"CHATMATE_DB_PATH": " "},
		{"CHATMATE_DB_CACHE_TTL": "0s"},
		{"CHATMATE_DB_MAX_OPEN_CONNS": "oops"},
		{"CHATMATE_AGENT_MODE": "plan-and-execute"},
		{"CHATMATE_AGENT_VERBOSE": "not-bool"},
		{"CHATMATE_LLM_API_KEY_ENV": ""},
		{"CHATMATE_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("chatmate", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestRequireCredential(t *testing.T) {
	key, err := RequireCredential(mapLookup(map[string]string{"GROQ_API_KEY": "  gsk_123 "}), "GROQ_API_KEY")
	if err != nil {
		t.Fatalf("RequireCredential() error = %v", err)
	}
	if key != "gsk_123" {
		t.Fatalf("key = %q", key)
	}

	for _, env := range []map[string]string{{}, {"GROQ_API_KEY": "   "}} {
		_, err := RequireCredential(mapLookup(env), "GROQ_API_KEY")
		if !errors.Is(err, ErrMissingCredential) {
			t.Fatalf("RequireCredential(%#v) error = %v, want ErrMissingCredential", env, err)
		}
	}
}

func TestLoadDotEnvSkipsMissingFileAndKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("CHATMATE_TEST_DOTENV_A=from-file\nCHATMATE_TEST_DOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("CHATMATE_TEST_DOTENV_B", "from-env")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("CHATMATE_TEST_DOTENV_A") })

	if got := os.Getenv("CHATMATE_TEST_DOTENV_A"); got != "from-file" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("CHATMATE_TEST_DOTENV_B"); got != "from-env" {
		t.Fatalf("B = %q", got)
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
