package core

import (
	"context"
)

type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	GetTokenBudget() int
	GetRetrievalK() int
	IsTelegramSelected() bool
}

type PromptConfig interface {
	GetSystemPath() string
}

type ProviderConfig interface {
	GetModel() string
	SetModel(model string) error
	GetProvider() string
}

type GlobalState interface {
	ChangeModel(ctx context.Context, model string) error
	CurrentModel() string
}
