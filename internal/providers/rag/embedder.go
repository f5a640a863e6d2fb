package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

const embedBatchSize = 64

// Embedder turns text into vectors through an OpenAI-compatible embeddings
// endpoint.
type Embedder struct {
	emb embeddings.Embedder
}

func NewOpenAIEmbedder(apiKey, baseURL, model string) (*Embedder, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings client: %w", err)
	}

	return NewEmbedder(client)
}

// NewEmbedder wraps any langchaingo embeddings client.
func NewEmbedder(client embeddings.EmbedderClient) (*Embedder, error) {
	emb, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(embedBatchSize))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return &Embedder{emb: emb}, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.emb.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed texts: %w", err)
	}
	return vectors, nil
}

// LangChain exposes the underlying embedder for langchaingo vector stores.
func (e *Embedder) LangChain() embeddings.Embedder {
	return e.emb
}
