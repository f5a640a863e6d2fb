package core

import "context"

// Caller describes who issued a command.
type Caller struct {
	Key      ConversationKey
	Username string
	IsAdmin  bool
}

type CmdRouter interface {
	Execute(ctx context.Context, caller Caller, input string) (string, bool)
	ListCommands() []Command
}

type Command interface {
	Name() string
	Description() string
	AdminOnly() bool
	Execute(ctx context.Context, caller Caller, args []string) (string, error)
}
