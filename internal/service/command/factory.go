package command

import (
	"github.com/sandevgo/teambot/internal/core"
)

func NewCommands(
	cfg core.ProviderConfig,
	state core.GlobalState,
	stats core.StatsRepository,
	kb KnowledgeWriter,
) []core.Command {
	return []core.Command{
		NewModelCommand(cfg, state),
		NewStatsCommand(stats),
		NewUpdCommand(kb),
	}
}
