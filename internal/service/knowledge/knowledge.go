// Package knowledge feeds the vector store: admin text updates, uploaded
// documents and files dropped into the inbox.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/internal/providers/rag"
	"github.com/sandevgo/teambot/pkg/log"
	"github.com/sandevgo/teambot/pkg/retry"
)

const (
	MetaSource   = "source"
	MetaChunk    = "chunk"
	MetaQuestion = "question"
	MetaAnswer   = "answer"
)

var ErrEmptyKnowledge = errors.New("nothing to import")

type Splitter interface {
	Split(text string) []rag.Chunk
}

type Service struct {
	store      core.VectorStore
	uploads    core.UploadsRepository
	splitter   Splitter
	retrier    *retry.Retrier
	fetcher    *Fetcher
	uploadsDir string
	newID      func() string
}

func NewService(store core.VectorStore, uploads core.UploadsRepository, splitter Splitter, uploadsDir string) *Service {
	return &Service{
		store:      store,
		uploads:    uploads,
		splitter:   splitter,
		retrier:    retry.NewDefaultRetrier(),
		fetcher:    NewFetcher(defaultFetchTimeout, nil),
		uploadsDir: uploadsDir,
		newID:      uuid.NewString,
	}
}

// AddText chunks free text and upserts every chunk. It returns the number of
// documents written.
func (s *Service) AddText(ctx context.Context, text, source string) (int, error) {
	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return 0, ErrEmptyKnowledge
	}

	docs := make([]core.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, core.Document{
			ID:   s.newID(),
			Text: c.Text,
			Metadata: map[string]any{
				MetaSource: source,
				MetaChunk:  c.Index,
			},
		})
	}

	if err := s.upsert(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// AddTable stores question/answer rows, one document per row. Rows without a
// question or an answer are skipped.
func (s *Service) AddTable(ctx context.Context, rows [][]string, source string) (int, error) {
	docs := make([]core.Document, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		question := strings.TrimSpace(row[0])
		answer := strings.TrimSpace(row[1])
		if question == "" || answer == "" {
			continue
		}

		docs = append(docs, core.Document{
			ID:   s.newID(),
			Text: fmt.Sprintf("Q: %s\nA: %s", question, answer),
			Metadata: map[string]any{
				MetaSource:   source,
				MetaChunk:    i,
				MetaQuestion: question,
				MetaAnswer:   answer,
			},
		})
	}

	if len(docs) == 0 {
		return 0, ErrEmptyKnowledge
	}
	if err := s.upsert(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *Service) upsert(ctx context.Context, docs []core.Document) error {
	logger := log.FromCtx(ctx)

	retrier := *s.retrier
	retrier.OnRetry = func(attempt int, err error) {
		logger.Warn().Err(err).Int("attempt", attempt).Msg("knowledge upsert failed, retrying")
	}

	err := retrier.Do(ctx, func(ctx context.Context) error {
		if err := s.store.Upsert(ctx, docs); err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d documents: %w", len(docs), err)
	}

	logger.Info().Int("documents", len(docs)).Msg("knowledge updated")
	return nil
}
