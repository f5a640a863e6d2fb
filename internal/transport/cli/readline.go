package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sandevgo/teambot/internal/config"
	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/log"
)

// LocalUserID is the conversation owner for the terminal chat.
const LocalUserID int64 = 0

type Responder interface {
	Respond(ctx context.Context, key core.ConversationKey, text string) (string, error)
}

type ReadLine struct {
	responder Responder
	router    core.CmdRouter
	rl        *readline.Instance
}

func NewReadLine(cfg *config.AppConfig, responder Responder, router core.CmdRouter) (*ReadLine, error) {
	if err := os.MkdirAll(cfg.GetRuntimePath(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.GetRuntimePath(), "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		responder: responder,
		router:    router,
		rl:        rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ReadLine chat started. Type 'exit' to quit.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}

		if reply, ok := r.handle(ctx, line); ok {
			fmt.Fprintf(r.rl.Stdout(), "%s\n", reply)
		}
	}
}

// handle answers one input line. The local user is always an admin.
func (r *ReadLine) handle(ctx context.Context, line string) (string, bool) {
	if line == "" {
		return "", false
	}

	caller := core.Caller{Key: core.DirectKey(LocalUserID), Username: "local", IsAdmin: true}
	if reply, ok := r.router.Execute(ctx, caller, line); ok {
		return reply, true
	}

	reply, err := r.responder.Respond(ctx, caller.Key, line)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to answer")
		return fmt.Sprintf("Error: %v", err), true
	}
	return reply, true
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
