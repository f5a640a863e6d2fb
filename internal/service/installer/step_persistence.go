package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandevgo/teambot/internal/service/memory"
	"github.com/sandevgo/teambot/internal/service/ui"
	"github.com/sandevgo/teambot/pkg/env"
)

// SaveEnvStep writes the collected configuration to the .env file.
type SaveEnvStep struct {
	err   error
	saved bool
}

func NewSaveEnvStep() Step {
	return &SaveEnvStep{}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}
	if s.err = saveEnv(state); s.err != nil {
		return s, nil
	}
	s.saved = true
	return nil, nil
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return ui.ErrorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	return "Saving configuration...\n"
}

func saveEnv(state *InstallState) error {
	if err := os.MkdirAll(state.RuntimePath, 0o755); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	envPath := filepath.Join(state.RuntimePath, ".env")
	if _, err := os.Stat(envPath); err == nil {
		return fmt.Errorf(".env file already exists at %s", envPath)
	}

	content, err := env.MarshalEnv(&state.Settings)
	if err != nil {
		return err
	}
	return os.WriteFile(envPath, []byte(content), 0o600)
}

// InitializeFilesStep creates the runtime layout and a default SYSTEM.md.
type InitializeFilesStep struct {
	err  error
	done bool
}

func NewInitializeFilesStep() Step {
	return &InitializeFilesStep{}
}

func (s *InitializeFilesStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *InitializeFilesStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.done {
		return nil, nil
	}
	if s.err = initializeFiles(state.RuntimePath); s.err != nil {
		return s, nil
	}
	s.done = true
	return nil, nil
}

func (s *InitializeFilesStep) View(state *InstallState) string {
	if s.err != nil {
		return ui.ErrorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	return "Initializing runtime files...\n"
}

func initializeFiles(path string) error {
	for _, dir := range []string{"uploads", "inbox"} {
		if err := os.MkdirAll(filepath.Join(path, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	systemPath := filepath.Join(path, "SYSTEM.md")
	if _, err := os.Stat(systemPath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.WriteFile(systemPath, []byte(memory.DefaultInstruction+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", systemPath, err)
	}
	return nil
}
