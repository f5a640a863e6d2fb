package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/teambot/internal/core"
)

const helpIntro = "I am %s, the team assistant. Ask me anything in a direct message, " +
	"or mention me in a group chat. I answer from the team knowledge base and remember " +
	"the recent conversation."

type commandLister interface {
	ListCommands() []core.Command
}

type HelpCommand struct {
	lister    commandLister
	formatter *ResponseFormatter
}

func NewHelpCommand(lister commandLister) *HelpCommand {
	return &HelpCommand{
		lister:    lister,
		formatter: NewResponseFormatter(),
	}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "What this bot can do"
}

func (c *HelpCommand) AdminOnly() bool {
	return false
}

// Execute lists only the commands the caller may run.
func (c *HelpCommand) Execute(ctx context.Context, caller core.Caller, args []string) (string, error) {
	var items []string
	for _, cmd := range c.lister.ListCommands() {
		if cmd.AdminOnly() && !caller.IsAdmin {
			continue
		}
		items = append(items, fmt.Sprintf("/%s - %s", cmd.Name(), cmd.Description()))
	}

	return c.formatter.Combine(
		fmt.Sprintf(helpIntro, core.BotName)+"\n",
		c.formatter.Info("Commands"),
		c.formatter.List(items),
	), nil
}
