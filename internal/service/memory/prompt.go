package memory

import (
	"os"
	"strings"

	"github.com/sandevgo/teambot/internal/core"
)

const DefaultInstruction = `You are a helpful team assistant. Answer questions using the provided context ` +
	`when it is relevant. If the context does not contain the answer, say so briefly ` +
	`instead of guessing. Reply in the language of the question.`

type SysPrompt struct {
	cfg core.PromptConfig
}

func NewSysPrompt(cfg core.PromptConfig) *SysPrompt {
	return &SysPrompt{
		cfg: cfg,
	}
}

// Build reads SYSTEM.md from the runtime dir on every call so edits apply
// without a restart.
func (p *SysPrompt) Build() string {
	content, err := os.ReadFile(p.cfg.GetSystemPath())
	if err != nil {
		return DefaultInstruction
	}
	if s := strings.TrimSpace(string(content)); s != "" {
		return s
	}
	return DefaultInstruction
}
