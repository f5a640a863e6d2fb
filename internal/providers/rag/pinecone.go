package rag

import (
	"context"
	"fmt"

	pineconesdk "github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/sandevgo/teambot/internal/core"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// MetadataDocID repeats the vector id in metadata so search results can be
// traced back to their document.
const MetadataDocID = "doc_id"

const defaultPineconeTextKey = "text"

type documentSearcher interface {
	SimilaritySearch(ctx context.Context, query string, numDocuments int) ([]schema.Document, error)
}

type vectorUpserter interface {
	UpsertVectors(ctx context.Context, vectors []*pineconesdk.Vector) error
}

// PineconeStore is a hosted vector store backed by a Pinecone index. Writes
// use document ids as vector ids, so repeating an upsert overwrites instead
// of duplicating.
type PineconeStore struct {
	search   documentSearcher
	upserter vectorUpserter
	embedder core.Embedder
	textKey  string
}

type PineconeConfig struct {
	APIKey    string
	Host      string
	Namespace string
	TextKey   string
}

func NewPineconeStore(cfg PineconeConfig, embedder *Embedder) (*PineconeStore, error) {
	textKey := cfg.TextKey
	if textKey == "" {
		textKey = defaultPineconeTextKey
	}

	store, err := pinecone.New(
		pinecone.WithHost(cfg.Host),
		pinecone.WithAPIKey(cfg.APIKey),
		pinecone.WithEmbedder(embedder.LangChain()),
		pinecone.WithNameSpace(cfg.Namespace),
		pinecone.WithTextKey(textKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone store: %w", err)
	}

	client, err := pineconesdk.NewClient(pineconesdk.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	return &PineconeStore{
		search:   langchainSearcher{store},
		upserter: indexWriter{client: client, host: cfg.Host, namespace: cfg.Namespace},
		embedder: embedder,
		textKey:  textKey,
	}, nil
}

func (p *PineconeStore) Upsert(ctx context.Context, docs []core.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document %d has no id", i)
		}
		texts[i] = d.Text
	}

	values, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(values) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(values), len(docs))
	}

	vectors := make([]*pineconesdk.Vector, 0, len(docs))
	for i, d := range docs {
		meta := make(map[string]any, len(d.Metadata)+2)
		for k, v := range d.Metadata {
			meta[k] = v
		}
		meta[MetadataDocID] = d.ID
		meta[p.textKey] = d.Text

		metadata, err := structpb.NewStruct(meta)
		if err != nil {
			return fmt.Errorf("invalid metadata for document %s: %w", d.ID, err)
		}

		vectors = append(vectors, &pineconesdk.Vector{
			Id:       d.ID,
			Values:   values[i],
			Metadata: metadata,
		})
	}

	if err := p.upserter.UpsertVectors(ctx, vectors); err != nil {
		return fmt.Errorf("pinecone upsert failed: %w", err)
	}
	return nil
}

func (p *PineconeStore) SimilaritySearch(ctx context.Context, query string, k int) ([]core.Snippet, error) {
	docs, err := p.search.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("pinecone search failed: %w", err)
	}

	snippets := make([]core.Snippet, 0, len(docs))
	for _, d := range docs {
		snippets = append(snippets, core.Snippet{
			Text:     d.PageContent,
			Score:    d.Score,
			Metadata: d.Metadata,
		})
	}
	return snippets, nil
}

// langchainSearcher drops the variadic options so the store can be faked.
type langchainSearcher struct {
	s pinecone.Store
}

func (l langchainSearcher) SimilaritySearch(ctx context.Context, query string, numDocuments int) ([]schema.Document, error) {
	return l.s.SimilaritySearch(ctx, query, numDocuments)
}

type indexWriter struct {
	client    *pineconesdk.Client
	host      string
	namespace string
}

func (w indexWriter) UpsertVectors(ctx context.Context, vectors []*pineconesdk.Vector) error {
	conn, err := w.client.IndexWithNamespace(w.host, w.namespace)
	if err != nil {
		return fmt.Errorf("failed to connect to index: %w", err)
	}
	defer conn.Close()

	_, err = conn.UpsertVectors(&ctx, vectors)
	return err
}
