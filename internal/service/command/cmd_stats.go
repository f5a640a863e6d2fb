package command

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/teambot/internal/core"
)

type StatsCommand struct {
	repo      core.StatsRepository
	formatter *ResponseFormatter
	now       func() time.Time
}

func NewStatsCommand(repo core.StatsRepository) *StatsCommand {
	return &StatsCommand{
		repo:      repo,
		formatter: NewResponseFormatter(),
		now:       time.Now,
	}
}

func (c *StatsCommand) Name() string {
	return "stats"
}

func (c *StatsCommand) Description() string {
	return "Requests and uploads per user for a day"
}

func (c *StatsCommand) AdminOnly() bool {
	return true
}

func (c *StatsCommand) Execute(ctx context.Context, caller core.Caller, args []string) (string, error) {
	day := c.now().UTC()
	if len(args) > 0 {
		var err error
		if day, err = core.ParseDay(args[0]); err != nil {
			return "", err
		}
	}

	stats, err := c.repo.UserStatsByDate(ctx, day)
	if err != nil {
		return "", fmt.Errorf("failed to load stats: %w", err)
	}

	title := c.formatter.Info(fmt.Sprintf("Stats for %s", day.Format(core.DayLayout)))
	if len(stats) == 0 {
		return c.formatter.Combine(title, "No activity."), nil
	}

	items := make([]string, 0, len(stats))
	var requests, files int
	for _, s := range stats {
		items = append(items, fmt.Sprintf("user `%d`: %d requests, %d files", s.UserID, s.RequestCount, s.FileCount))
		requests += s.RequestCount
		files += s.FileCount
	}

	return c.formatter.Combine(
		title,
		c.formatter.List(items),
		c.formatter.Label("Total", fmt.Sprintf("%d requests, %d files", requests, files)),
	), nil
}
