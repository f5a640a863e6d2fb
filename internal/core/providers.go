package core

import "context"

type ChatModel interface {
	Invoke(ctx context.Context, prompt PromptSequence) (string, error)
	Model() string
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]Snippet, error)
	Upsert(ctx context.Context, docs []Document) error
}

// TokenCounter measures text in units of the target model's tokenizer.
type TokenCounter interface {
	Count(text string) int
}
