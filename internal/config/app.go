package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/teambot/pkg/log"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type AppConfig struct {
	RuntimePath string `env:"TEAMBOT_RUNTIME_PATH" envDefault:".teambot"`

	// Transport Flags
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"ENABLE_CLI" envDefault:"false"`
	EnableStats    bool `env:"ENABLE_STATS" envDefault:"true"`

	// Storage
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL"`

	// Context Management
	TokenBudget  int `env:"TOKEN_BUDGET" envDefault:"14000"`
	RetrievalK   int `env:"RETRIEVAL_K" envDefault:"3"`
	HistoryLimit int `env:"HISTORY_LIMIT" envDefault:"0"`

	// LLM
	Provider            string `env:"LLM_PROVIDER" envDefault:"openai"`
	Model               string `env:"LLM_MODEL" envDefault:"gpt-4-turbo-2024-04-09"`
	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY"`
	OpenRouterAPIKey    string `env:"OPENROUTER_API_KEY"`
	OllamaBaseURL       string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey        string `env:"OLLAMA_API_KEY"`
	CustomOpenAIBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomOpenAIAPIKey  string `env:"CUSTOM_OPENAI_API_KEY"`

	mu sync.RWMutex
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c
}

func (c *AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c *AppConfig) GetSystemPath() string {
	return filepath.Join(c.RuntimePath, "SYSTEM.md")
}

func (c *AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "teambot.db")
}

func (c *AppConfig) GetTokenBudget() int {
	return c.TokenBudget
}

func (c *AppConfig) GetRetrievalK() int {
	return c.RetrievalK
}

func (c *AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}

func (c *AppConfig) GetProvider() string {
	return c.Provider
}

func (c *AppConfig) GetModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Model
}

// SetModel changes the model for the running process only.
func (c *AppConfig) SetModel(model string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Model = model
	return nil
}
