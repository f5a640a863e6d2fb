package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/log"
)

type Answerer interface {
	Answer(ctx context.Context, q core.Query) (core.Answer, error)
}

// Responder turns a user message into reply text and records the exchange.
type Responder struct {
	agent Answerer
	store core.ConversationStore
}

func NewResponder(agent Answerer, store core.ConversationStore) *Responder {
	return &Responder{
		agent: agent,
		store: store,
	}
}

// Respond returns the text to show the user. Answer failures with a user
// message come back as that message and a nil error; nothing is stored for
// them.
func (r *Responder) Respond(ctx context.Context, key core.ConversationKey, text string) (string, error) {
	logger := log.FromCtx(ctx)

	q := core.Query{
		Key:  key,
		Text: text,
		At:   time.Now().UTC(),
	}

	answer, err := r.agent.Answer(ctx, q)
	if err != nil {
		var aerr *core.AnswerError
		if errors.As(err, &aerr) && ctx.Err() == nil {
			logger.Error().Err(aerr.Err).Str("code", aerr.Code).Str("conversation", key.String()).Msg("answer failed")
			return aerr.UserMessage, nil
		}
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("request abandoned: %w", err)
	}

	user := core.Message{Key: key, Role: core.RoleUser, Content: text, CreatedAt: q.At}
	reply := core.Message{Key: key, Role: core.RoleAssistant, Content: answer.Text, CreatedAt: time.Now().UTC()}
	if !reply.CreatedAt.After(user.CreatedAt) {
		reply.CreatedAt = user.CreatedAt.Add(time.Microsecond)
	}

	if err := r.store.AppendExchange(ctx, user, reply); err != nil {
		logger.Error().Err(err).Str("conversation", key.String()).Msg("failed to save exchange")
	}

	logger.Info().
		Str("conversation", key.String()).
		Int("prompt_tokens", answer.PromptTokens).
		Int("evicted", answer.Evicted).
		Int("snippets", answer.Snippets).
		Msg("answered")

	return answer.Text, nil
}
