package state

import (
	"context"
)

type provider interface {
	SetModel(ctx context.Context, model string) error
	Model() string
}

// GlobalState holds runtime settings that commands may change.
type GlobalState struct {
	provider provider
}

func NewGlobalState(provider provider) *GlobalState {
	return &GlobalState{
		provider: provider,
	}
}

func (s *GlobalState) ChangeModel(ctx context.Context, model string) error {
	return s.provider.SetModel(ctx, model)
}

func (s *GlobalState) CurrentModel() string {
	return s.provider.Model()
}
