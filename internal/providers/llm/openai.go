package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI talks to the chat completions API through langchaingo. Model
// listing reuses the plain HTTP client.
type OpenAI struct {
	*OpenAICompatible
	llm llms.Model
}

// NewOpenAI creates a new OpenAI provider. baseURL includes the /v1 suffix
// and may be empty.
func NewOpenAI(apiKey, baseURL, model string) (*OpenAI, error) {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	return &OpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1"),
			APIKey:     apiKey,
			Model:      model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
		llm: client,
	}, nil
}

func (o *OpenAI) Invoke(ctx context.Context, prompt core.PromptSequence) (string, error) {
	resp, err := o.llm.GenerateContent(ctx, toMessageContent(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return resp.Choices[0].Content, nil
}

func toMessageContent(prompt core.PromptSequence) []llms.MessageContent {
	msgs := prompt.Messages()
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		var role llms.ChatMessageType
		switch m.Role {
		case core.ChatRoleSystem:
			role = llms.ChatMessageTypeSystem
		case core.ChatRoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}
