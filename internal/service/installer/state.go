package installer

// Settings are the answers collected by the wizard, written to .env as is.
type Settings struct {
	Provider         string `env:"LLM_PROVIDER"`
	Model            string `env:"LLM_MODEL"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	OllamaBaseURL    string `env:"OLLAMA_BASE_URL"`
	CustomBaseURL    string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomAPIKey     string `env:"CUSTOM_OPENAI_API_KEY"`
	EmbeddingAPIKey  string `env:"EMBEDDING_API_KEY"`

	VectorStore    string `env:"VECTOR_STORE"`
	PineconeAPIKey string `env:"PINECONE_API_KEY"`
	PineconeHost   string `env:"PINECONE_HOST"`

	// "true"/"false" so that a disabled transport is still written out.
	EnableTelegram string `env:"ENABLE_TELEGRAM"`
	EnableCLI      string `env:"ENABLE_CLI"`

	TelegramToken       string   `env:"TELEGRAM_BOT_TOKEN"`
	TelegramOwnerID     string   `env:"TELEGRAM_OWNER_ID"`
	AuthorizedUsernames []string `env:"AUTHORIZED_USERNAMES" envSeparator:","`
}

type InstallState struct {
	RuntimePath string
	Settings    Settings
}

func NewInstallState(runtimePath string) *InstallState {
	return &InstallState{
		RuntimePath: runtimePath,
	}
}
