package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/teambot/internal/core"
)

const (
	DefaultRetrievalK = 3

	contextPreamble = "Using the context below, answer the query."
)

// ContextAssembler folds the top-k knowledge snippets into the user query.
type ContextAssembler struct {
	store core.VectorStore
	k     int
}

func NewContextAssembler(store core.VectorStore, k int) *ContextAssembler {
	if k <= 0 {
		k = DefaultRetrievalK
	}
	return &ContextAssembler{
		store: store,
		k:     k,
	}
}

// Augment runs exactly one similarity search. On failure it still returns the
// bare query so the caller can answer without context.
func (a *ContextAssembler) Augment(ctx context.Context, query string) (string, []core.Snippet, error) {
	snippets, err := a.store.SimilaritySearch(ctx, query, a.k)
	if err != nil {
		return query, nil, fmt.Errorf("%w: %w", core.ErrRetrievalFailed, err)
	}
	return FormatAugmented(query, snippets), snippets, nil
}

// FormatAugmented keeps the store's ranking order and returns the bare query
// when there is nothing to add.
func FormatAugmented(query string, snippets []core.Snippet) string {
	if len(snippets) == 0 {
		return query
	}

	texts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		texts = append(texts, s.Text)
	}

	var sb strings.Builder
	sb.WriteString(contextPreamble)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(strings.Join(texts, "\n"))
	sb.WriteString("\n\nQuery: ")
	sb.WriteString(query)
	return sb.String()
}
