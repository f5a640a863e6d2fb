package installer

import (
	"strings"

	"github.com/sandevgo/teambot/internal/config"
)

var defaultModels = map[string]string{
	"openai":     "gpt-4-turbo-2024-04-09",
	"anthropic":  "claude-3-5-sonnet-latest",
	"openrouter": "openai/gpt-4o-mini",
	"ollama":     "llama3.1",
	"custom":     "gpt-4o-mini",
}

func providerIs(names ...string) func(*InstallState) bool {
	return func(state *InstallState) bool {
		for _, n := range names {
			if state.Settings.Provider == n {
				return false
			}
		}
		return true
	}
}

func getSteps() []Step {
	modelStep := newInputStep("Chat model (enter for the default):", "", false)
	modelStep.fallback = true

	owner := newInputStep("Your Telegram user id (owner, optional):", "123456789", false)
	admins := newInputStep("Admin usernames, comma separated (optional):", "alice,bob", false)
	telegramSkip := func(state *InstallState) bool { return state.Settings.TelegramToken == "" }
	owner.skip, admins.skip = telegramSkip, telegramSkip

	embeddingKey := newInputStep("OpenAI API key for embeddings:", "sk-...", true)
	embeddingKey.skip = func(state *InstallState) bool { return state.Settings.Provider == "openai" }

	pineconeKey := newInputStep("Pinecone API key:", "pcsk_...", true)
	pineconeHost := newInputStep("Pinecone index host:", "https://index-xxxx.svc.pinecone.io", false)
	pineconeSkip := func(state *InstallState) bool { return state.Settings.VectorStore != config.VectorStorePinecone }
	pineconeKey.skip, pineconeHost.skip = pineconeSkip, pineconeSkip

	steps := []Step{
		&ChoiceStep{
			prompt: "Select your AI provider:",
			choices: []choice{
				{"openai", "OpenAI"}, {"anthropic", "Anthropic"}, {"openrouter", "OpenRouter"},
				{"ollama", "Ollama"}, {"custom", "Custom OpenAI compatible"},
			},
			apply: func(state *InstallState, id string) {
				state.Settings.Provider = id
				modelStep.input.Placeholder = defaultModels[id]
			},
		},
		withSkip(keyStep("OpenAI API key:", "sk-...", func(s *Settings, v string) { s.OpenAIAPIKey = v }), providerIs("openai")),
		withSkip(keyStep("Anthropic API key:", "sk-ant-...", func(s *Settings, v string) { s.AnthropicAPIKey = v }), providerIs("anthropic")),
		withSkip(keyStep("OpenRouter API key:", "sk-or-v1-...", func(s *Settings, v string) { s.OpenRouterAPIKey = v }), providerIs("openrouter")),
		withSkip(urlStep("Ollama base URL:", "http://localhost:11434", func(s *Settings, v string) { s.OllamaBaseURL = v }), providerIs("ollama")),
		withSkip(urlStep("Custom API base URL:", "http://localhost:8000", func(s *Settings, v string) { s.CustomBaseURL = v }), providerIs("custom")),
		withSkip(keyStep("Custom API key (optional):", "", func(s *Settings, v string) { s.CustomAPIKey = v }), providerIs("custom")),
		withApply(modelStep, func(state *InstallState, v string) { state.Settings.Model = v }),
		withApply(embeddingKey, func(state *InstallState, v string) { state.Settings.EmbeddingAPIKey = v }),
		&ChoiceStep{
			prompt: "Where should the knowledge base live?",
			choices: []choice{
				{config.VectorStoreSQLite, "Local SQLite"},
				{config.VectorStorePinecone, "Pinecone"},
			},
			apply: func(state *InstallState, id string) { state.Settings.VectorStore = id },
		},
		withApply(pineconeKey, func(state *InstallState, v string) { state.Settings.PineconeAPIKey = v }),
		withApply(pineconeHost, func(state *InstallState, v string) { state.Settings.PineconeHost = v }),
		keyStep("Telegram bot token (empty to use the terminal chat):", "123456789:ABCDEF...", func(s *Settings, v string) { s.TelegramToken = v }),
		withApply(owner, func(state *InstallState, v string) { state.Settings.TelegramOwnerID = v }),
		withApply(admins, func(state *InstallState, v string) { state.Settings.AuthorizedUsernames = splitUsernames(v) }),
		NewFinalizationStep(),
		NewSaveEnvStep(),
		NewInitializeFilesStep(),
	}
	return steps
}

func keyStep(prompt, placeholder string, set func(*Settings, string)) *InputStep {
	s := newInputStep(prompt, placeholder, true)
	s.apply = func(state *InstallState, v string) { set(&state.Settings, v) }
	return s
}

func urlStep(prompt, placeholder string, set func(*Settings, string)) *InputStep {
	s := newInputStep(prompt, placeholder, false)
	s.fallback = true
	s.apply = func(state *InstallState, v string) { set(&state.Settings, v) }
	return s
}

func withSkip(s *InputStep, skip func(*InstallState) bool) *InputStep {
	s.skip = skip
	return s
}

func withApply(s *InputStep, apply func(*InstallState, string)) *InputStep {
	s.apply = apply
	return s
}

func splitUsernames(s string) []string {
	var out []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimPrefix(strings.TrimSpace(u), "@"); u != "" {
			out = append(out, u)
		}
	}
	return out
}
