package installer

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

// FinalizationStep derives the transport flags from the answers.
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	finalize(&state.Settings)
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

func finalize(s *Settings) {
	telegram := s.TelegramToken != ""
	s.EnableTelegram = strconv.FormatBool(telegram)
	s.EnableCLI = strconv.FormatBool(!telegram)

	if s.Provider == "openai" {
		s.EmbeddingAPIKey = ""
	}
}
