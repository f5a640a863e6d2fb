package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/teambot/internal/core"
)

const searchKnowledgeSchema = `
{
  "type": "object",
  "properties": {
    "query": { "type": "string", "description": "What to look up in the team knowledge base" },
    "k": { "type": "integer", "description": "Number of snippets to return", "default": 3 }
  },
  "required": ["query"]
}
`

const askSchema = `
{
  "type": "object",
  "properties": {
    "question": { "type": "string", "description": "Question for the team assistant" },
    "user_id": { "type": "integer", "description": "Conversation owner, defaults to the local user 0" }
  },
  "required": ["question"]
}
`

const maxSearchK = 20

type Responder interface {
	Respond(ctx context.Context, key core.ConversationKey, text string) (string, error)
}

type toolDef struct {
	Description string
	Schema      string
	Handler     func(context.Context, json.RawMessage) (string, error)
}

// KnowledgeTools exposes the knowledge base and the answer pipeline as tools.
type KnowledgeTools struct {
	store     core.VectorStore
	responder Responder
	defaultK  int
}

func NewKnowledgeTools(store core.VectorStore, responder Responder, defaultK int) *KnowledgeTools {
	return &KnowledgeTools{
		store:     store,
		responder: responder,
		defaultK:  defaultK,
	}
}

func (t *KnowledgeTools) SearchKnowledge(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return "", errors.New("query is required")
	}

	k := input.K
	if k <= 0 {
		k = t.defaultK
	}
	k = min(k, maxSearchK)

	snippets, err := t.store.SimilaritySearch(ctx, input.Query, k)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if len(snippets) == 0 {
		return "No matching knowledge found.", nil
	}

	var sb strings.Builder
	for i, s := range snippets {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		fmt.Fprintf(&sb, "[%d] score=%.3f", i+1, s.Score)
		if src, ok := s.Metadata["source"].(string); ok && src != "" {
			fmt.Fprintf(&sb, " source=%s", src)
		}
		sb.WriteString("\n")
		sb.WriteString(s.Text)
	}
	return sb.String(), nil
}

func (t *KnowledgeTools) Ask(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Question string `json:"question"`
		UserID   int64  `json:"user_id"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(input.Question) == "" {
		return "", errors.New("question is required")
	}

	return t.responder.Respond(ctx, core.DirectKey(input.UserID), input.Question)
}

func (t *KnowledgeTools) GetDefinitions() map[string]toolDef {
	return map[string]toolDef{
		"search_knowledge": {"Search the team knowledge base and return the closest snippets", searchKnowledgeSchema, t.SearchKnowledge},
		"ask":              {"Ask the team assistant a question; the exchange is kept in the conversation history", askSchema, t.Ask},
	}
}
