package rag

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/teambot/internal/config"
	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/internal/storage/sqlite"
	"github.com/sandevgo/teambot/pkg/log"
)

// NewVectorStore builds the configured knowledge backend. db is only used by
// the sqlite backend and may be nil otherwise.
func NewVectorStore(ctx context.Context, cfg *config.RAGConfig, app *config.AppConfig, db *sql.DB) (core.VectorStore, error) {
	embedder, err := NewOpenAIEmbedder(cfg.APIKey(app), cfg.EmbeddingBaseURL, cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Info().
		Str("backend", cfg.VectorStore).
		Str("embedding_model", cfg.EmbeddingModel).
		Msg("starting knowledge store")

	switch cfg.VectorStore {
	case config.VectorStoreSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite vector store needs a database")
		}
		return sqlite.NewKnowledgeRepo(db, embedder), nil
	case config.VectorStorePinecone:
		return NewPineconeStore(PineconeConfig{
			APIKey:    cfg.PineconeAPIKey,
			Host:      cfg.PineconeHost,
			Namespace: cfg.PineconeNamespace,
			TextKey:   cfg.PineconeTextKey,
		}, embedder)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}
}
