package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/log"
)

// KnowledgeRepo is a local vector store. Embeddings live next to the text as
// sqlite-vec BLOBs and are ranked with vec_distance_cosine.
type KnowledgeRepo struct {
	db       *sql.DB
	embedder core.Embedder
}

func NewKnowledgeRepo(db *sql.DB, embedder core.Embedder) *KnowledgeRepo {
	return &KnowledgeRepo{
		db:       db,
		embedder: embedder,
	}
}

func (r *KnowledgeRepo) Upsert(ctx context.Context, docs []core.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().UnixMicro()
	for i, doc := range docs {
		vecBlob, err := serializeVector(vectors[i])
		if err != nil {
			return err
		}

		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if doc.Metadata == nil {
			meta = []byte("{}")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO knowledge (id, text, metadata, embedding, dims, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				text = excluded.text,
				metadata = excluded.metadata,
				embedding = excluded.embedding,
				dims = excluded.dims`,
			doc.ID, doc.Text, string(meta), vecBlob, len(vectors[i]), now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

func (r *KnowledgeRepo) SimilaritySearch(ctx context.Context, query string, k int) ([]core.Snippet, error) {
	if k <= 0 {
		return nil, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}
	queryVec, err := serializeVector(vectors[0])
	if err != nil {
		return nil, err
	}

	// Zero-length vectors have no cosine distance; they rank last.
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, metadata, distance
		FROM (
			SELECT id, text, metadata,
				COALESCE(vec_distance_cosine(embedding, ?), 2.0) AS distance
			FROM knowledge
			WHERE dims = ?
		)
		ORDER BY distance, id
		LIMIT ?`,
		queryVec, len(vectors[0]), k,
	)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	defer rows.Close()

	var snippets []core.Snippet
	for rows.Next() {
		var (
			id, text, meta string
			distance       float64
		)
		if err := rows.Scan(&id, &text, &meta, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge row: %w", err)
		}

		var metadata map[string]any
		if err := json.Unmarshal([]byte(meta), &metadata); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("id", id).Msg("ignoring malformed metadata")
			metadata = nil
		}

		snippets = append(snippets, core.Snippet{
			Text:     text,
			Score:    float32(1 - distance),
			Metadata: metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Int("count", len(snippets)).Msg("knowledge search")
	return snippets, nil
}

// Count reports how many documents are stored.
func (r *KnowledgeRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count knowledge: %w", err)
	}
	return n, nil
}
