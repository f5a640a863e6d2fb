package command

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/sandevgo/teambot/internal/core"
)

const adminOnlyMessage = "⛔ This command is available to administrators only."

// TextCommand receives the raw text after the command name instead of
// whitespace separated args.
type TextCommand interface {
	ExecuteText(ctx context.Context, caller core.Caller, text string) (string, error)
}

type Router struct {
	commands  map[string]core.Command
	formatter *ResponseFormatter
}

func New(commands []core.Command) *Router {
	r := &Router{
		commands:  make(map[string]core.Command),
		formatter: NewResponseFormatter(),
	}

	for _, cmd := range commands {
		r.commands[cmd.Name()] = cmd
	}
	if _, ok := r.commands["help"]; !ok {
		help := NewHelpCommand(r)
		r.commands[help.Name()] = help
	}
	return r
}

// Execute runs a slash command. The bool result reports whether input was a
// command at all.
func (r *Router) Execute(ctx context.Context, caller core.Caller, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	head, rest := input, ""
	if i := strings.IndexFunc(input, unicode.IsSpace); i >= 0 {
		head, rest = input[:i], input[i:]
	}

	// "/stats@teambot" in groups
	name, _, _ := strings.Cut(strings.TrimPrefix(head, "/"), "@")
	name = strings.ToLower(name)

	cmd, ok := r.commands[name]
	if !ok {
		return r.formatter.Unknown(name), true
	}

	if cmd.AdminOnly() && !caller.IsAdmin {
		return adminOnlyMessage, true
	}

	rest = strings.TrimSpace(rest)

	var (
		result string
		err    error
	)
	if tc, ok := cmd.(TextCommand); ok {
		result, err = tc.ExecuteText(ctx, caller, rest)
	} else {
		result, err = cmd.Execute(ctx, caller, strings.Fields(rest))
	}
	if err != nil {
		return r.formatter.Error(err), true
	}
	return result, true
}

// ListCommands returns the commands sorted by name.
func (r *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		res = append(res, cmd)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name() < res[j].Name()
	})
	return res
}
