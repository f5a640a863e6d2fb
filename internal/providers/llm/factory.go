package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/teambot/internal/config"
	"github.com/sandevgo/teambot/pkg/log"
)

const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderCustom     = "custom"
)

// NewProvider creates the chat model selected by configuration.
func NewProvider(ctx context.Context, cfg *config.AppConfig) (Provider, error) {
	model := cfg.GetModel()

	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", model).
		Msg("starting llm provider")

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, model)
	case ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicAPIKey, model), nil
	case ProviderOpenRouter:
		return NewOpenRouter(cfg.OpenRouterAPIKey, model), nil
	case ProviderOllama:
		return NewOllama(cfg.OllamaBaseURL, cfg.OllamaAPIKey, model), nil
	case ProviderCustom:
		return NewCustomOpenAI(cfg.CustomOpenAIBaseURL, cfg.CustomOpenAIAPIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
