package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/internal/service/memory"
	"github.com/sandevgo/teambot/pkg/log"
	"github.com/sandevgo/teambot/pkg/tokens"
)

const DefaultTokenBudget = 14000

type HistoryReader interface {
	ReadOrdered(ctx context.Context, key core.ConversationKey) ([]core.Message, error)
}

type Assembler interface {
	Augment(ctx context.Context, query string) (string, []core.Snippet, error)
}

type Prompter interface {
	Build() string
}

// CounterFunc returns the tokenizer of the given model.
type CounterFunc func(model string) (core.TokenCounter, error)

// Agent answers a single query. It holds no conversation state of its own:
// the history is reloaded from the store on every call and nothing is written.
type Agent struct {
	history   HistoryReader
	assembler Assembler
	prompter  Prompter
	model     core.ChatModel
	budget    int
	counter   CounterFunc
}

func NewAgent(
	history HistoryReader,
	assembler Assembler,
	prompter Prompter,
	model core.ChatModel,
	budget int,
) *Agent {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &Agent{
		history:   history,
		assembler: assembler,
		prompter:  prompter,
		model:     model,
		budget:    budget,
		counter: func(model string) (core.TokenCounter, error) {
			return tokens.NewCounter(model)
		},
	}
}

func (a *Agent) Answer(ctx context.Context, q core.Query) (core.Answer, error) {
	logger := log.FromCtx(ctx).With().Str("conversation", q.Key.String()).Logger()

	if q.At.IsZero() {
		q.At = time.Now().UTC()
	}

	// Gather
	history, err := a.history.ReadOrdered(ctx, q.Key)
	if err != nil {
		return core.Answer{}, fmt.Errorf("failed to read history: %w", err)
	}

	// Augment
	augmented, snippets, err := a.assembler.Augment(ctx, q.Text)
	if err != nil {
		logger.Warn().Err(err).Msg("answering without knowledge context")
	}

	// Budget-check
	counter, err := a.counter(a.model.Model())
	if err != nil {
		return core.Answer{}, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	instruction := a.prompter.Build()
	reserved := counter.Count(instruction) + counter.Count(augmented)

	window, err := memory.FitWindow(history, q.At, reserved, a.budget, counter)
	if err != nil {
		if errors.Is(err, core.ErrTokenBudgetExceeded) {
			logger.Warn().Err(err).Int("budget", a.budget).Msg("prompt does not fit")
			return core.Answer{}, core.NewTokenBudgetError(err)
		}
		return core.Answer{}, err
	}

	prompt := core.PromptSequence{
		Instruction: instruction,
		History:     window.Messages,
		Query:       augmented,
	}

	logger.Debug().
		Int("history", len(window.Messages)).
		Int("evicted", window.Evicted).
		Int("snippets", len(snippets)).
		Int("tokens", reserved+window.Tokens).
		Msg("invoking chat model")

	// Invoke
	text, err := a.model.Invoke(ctx, prompt)
	if err != nil {
		return core.Answer{}, core.NewGenerationError(err)
	}

	return core.Answer{
		Text:         text,
		PromptTokens: reserved + window.Tokens,
		Evicted:      window.Evicted,
		Snippets:     len(snippets),
	}, nil
}
