package llm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/teambot/internal/config"
	"github.com/sandevgo/teambot/internal/core"
)

// DynamicProvider lets the model be switched while requests are in flight.
// Each Invoke uses whichever provider was current when it started.
type DynamicProvider struct {
	config  *config.AppConfig
	current atomic.Pointer[holder]
	mu      sync.Mutex
}

type holder struct {
	Provider
}

func NewDynamicProvider(ctx context.Context, cfg *config.AppConfig) (*DynamicProvider, error) {
	d := &DynamicProvider{
		config: cfg,
	}

	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial provider: %w", err)
	}

	d.current.Store(&holder{provider})
	return d, nil
}

func (d *DynamicProvider) load() Provider {
	return d.current.Load().Provider
}

func (d *DynamicProvider) Invoke(ctx context.Context, prompt core.PromptSequence) (string, error) {
	return d.load().Invoke(ctx, prompt)
}

func (d *DynamicProvider) Model() string {
	return d.load().Model()
}

func (d *DynamicProvider) Models(ctx context.Context) ([]ModelInfo, error) {
	return d.load().Models(ctx)
}

func (d *DynamicProvider) SetModel(ctx context.Context, model string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous := d.config.GetModel()
	if err := d.config.SetModel(model); err != nil {
		return err
	}

	newProvider, err := NewProvider(ctx, d.config)
	if err != nil {
		_ = d.config.SetModel(previous)
		return fmt.Errorf("failed to create provider: %w", err)
	}

	d.current.Store(&holder{newProvider})
	return nil
}
