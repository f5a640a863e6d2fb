package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/teambot/pkg/log"
)

const (
	VectorStoreSQLite   = "sqlite"
	VectorStorePinecone = "pinecone"
)

type RAGConfig struct {
	VectorStore string `env:"VECTOR_STORE" envDefault:"sqlite"`

	EmbeddingModel   string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-ada-002"`
	EmbeddingAPIKey  string `env:"EMBEDDING_API_KEY"`
	EmbeddingBaseURL string `env:"EMBEDDING_BASE_URL"`

	PineconeAPIKey    string `env:"PINECONE_API_KEY"`
	PineconeHost      string `env:"PINECONE_HOST"`
	PineconeNamespace string `env:"PINECONE_NAMESPACE"`
	PineconeTextKey   string `env:"PINECONE_TEXT_KEY" envDefault:"text"`
}

func NewRAGConfig(ctx context.Context) *RAGConfig {
	cfg := &RAGConfig{}
	if err := env.Parse(cfg); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse RAG config")
	}
	return cfg
}

// APIKey falls back to the OpenAI key used for chat.
func (c *RAGConfig) APIKey(app *AppConfig) string {
	if c.EmbeddingAPIKey != "" {
		return c.EmbeddingAPIKey
	}
	return app.OpenAIAPIKey
}
