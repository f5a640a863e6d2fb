package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/internal/service/knowledge"
)

type KnowledgeWriter interface {
	AddText(ctx context.Context, text, source string) (int, error)
	ImportURL(ctx context.Context, rawURL string) (int, error)
}

// UpdCommand adds free text to the knowledge base.
type UpdCommand struct {
	kb        KnowledgeWriter
	formatter *ResponseFormatter
}

func NewUpdCommand(kb KnowledgeWriter) *UpdCommand {
	return &UpdCommand{
		kb:        kb,
		formatter: NewResponseFormatter(),
	}
}

func (c *UpdCommand) Name() string {
	return "upd"
}

func (c *UpdCommand) Description() string {
	return "Add text to the knowledge base (also: a message starting with +)"
}

func (c *UpdCommand) AdminOnly() bool {
	return true
}

func (c *UpdCommand) Execute(ctx context.Context, caller core.Caller, args []string) (string, error) {
	return "", errors.New("upd needs the raw message text")
}

func (c *UpdCommand) ExecuteText(ctx context.Context, caller core.Caller, text string) (string, error) {
	if text == "" {
		return c.formatter.Combine(
			c.formatter.Usage("/upd <text>"),
			c.formatter.Examples([]string{
				"/upd The office is closed on public holidays.",
				"/upd https://wiki.example.com/onboarding",
				"+ Standup is at 10:00 every weekday.",
			}),
		), nil
	}

	var (
		n   int
		err error
	)
	if knowledge.IsURL(text) {
		n, err = c.kb.ImportURL(ctx, text)
	} else {
		n, err = c.kb.AddText(ctx, text, fmt.Sprintf("upd:%s", caller.Key))
	}
	if err != nil {
		return "", fmt.Errorf("failed to update knowledge: %w", err)
	}
	return c.formatter.Success(fmt.Sprintf("Knowledge base updated (%d chunks)", n)), nil
}
