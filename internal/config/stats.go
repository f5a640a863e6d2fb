package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/teambot/pkg/log"
)

type StatsConfig struct {
	Addr        string        `env:"STATS_ADDR" envDefault:":8080"`
	ReadTimeout time.Duration `env:"STATS_READ_TIMEOUT" envDefault:"10s"`
}

func NewStatsConfig(ctx context.Context) *StatsConfig {
	c := &StatsConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Stats config")
	}
	return c
}
