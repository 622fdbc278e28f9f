package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	AgentModeReAct  = "react"
	AgentModeDirect = "direct"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	LLM           LLMConfig
	Agent         AgentConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Engine        string
	Path          string
	CacheTTL      time.Duration
	MaxOpenConns  int
	SampleRows    int
	MaxResultRows int
}

type LLMConfig struct {
	BaseURL   string
	Model     string
	APIKeyEnv string
	Streaming bool
	Timeout   time.Duration
}

type AgentConfig struct {
	Mode          string
	MaxIterations int
	TopK          int
	Verbose       bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("CHATMATE_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid CHATMATE_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "CHATMATE_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "CHATMATE_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "CHATMATE_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "CHATMATE_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "CHATMATE_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "CHATMATE_DB_ENGINE", &cfg.Database.Engine); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "CHATMATE_DB_PATH", &cfg.Database.Path); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "CHATMATE_DB_CACHE_TTL", &cfg.Database.CacheTTL); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "CHATMATE_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "CHATMATE_DB_SAMPLE_ROWS", &cfg.Database.SampleRows); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "CHATMATE_DB_MAX_RESULT_ROWS", &cfg.Database.MaxResultRows); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "CHATMATE_LLM_BASE_URL", &cfg.LLM.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "CHATMATE_LLM_MODEL", &cfg.LLM.Model); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "CHATMATE_LLM_API_KEY_ENV", &cfg.LLM.APIKeyEnv); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "CHATMATE_LLM_STREAMING", &cfg.LLM.Streaming); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "CHATMATE_LLM_TIMEOUT", &cfg.LLM.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "CHATMATE_AGENT_MODE", &cfg.Agent.Mode); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "CHATMATE_AGENT_MAX_ITERATIONS", &cfg.Agent.MaxIterations); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "CHATMATE_AGENT_TOP_K", &cfg.Agent.TopK); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "CHATMATE_AGENT_VERBOSE", &cfg.Agent.Verbose); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "CHATMATE_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "CHATMATE_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "CHATMATE_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "CHATMATE_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	cfg.Database.Engine = strings.ToLower(cfg.Database.Engine)
	cfg.Agent.Mode = strings.ToLower(cfg.Agent.Mode)

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Database.Path == "" {
		return Config{}, fmt.Errorf("database path is required")
	}
	switch cfg.Database.Engine {
	case "sqlite", "duckdb", "postgres":
	default:
		return Config{}, fmt.Errorf("invalid CHATMATE_DB_ENGINE: %q", cfg.Database.Engine)
	}
	switch cfg.Agent.Mode {
	case AgentModeReAct, AgentModeDirect:
	default:
		return Config{}, fmt.Errorf("invalid CHATMATE_AGENT_MODE: %q", cfg.Agent.Mode)
	}
	if cfg.Database.CacheTTL <= 0 {
		return Config{}, fmt.Errorf("database cache ttl must be positive")
	}
	if cfg.LLM.APIKeyEnv == "" {
		return Config{}, fmt.Errorf("llm api key env name is required")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "chatmate"},
		HTTP: HTTPConfig{
			Address:      ":8501",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Engine:        "sqlite",
			Path:          "analytics_db",
			CacheTTL:      2 * time.Hour,
			MaxOpenConns:  4,
			SampleRows:    3,
			MaxResultRows: 200,
		},
		LLM: LLMConfig{
			BaseURL:   "https://api.groq.com/openai/v1",
			Model:     "llama3-8b-8192",
			APIKeyEnv: "GROQ_API_KEY",
			Streaming: true,
			Timeout:   2 * time.Minute,
		},
		Agent: AgentConfig{
			Mode:          AgentModeReAct,
			MaxIterations: 15,
			TopK:          10,
			Verbose:       true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  false,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18501"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Agent.Verbose = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogJSON = true
		cfg.Agent.Verbose = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
