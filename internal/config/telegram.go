package config

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/teambot/pkg/log"
)

type TelegramConfig struct {
	Token               string   `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	OwnerID             int64    `env:"TELEGRAM_OWNER_ID"`
	AuthorizedUsernames []string `env:"AUTHORIZED_USERNAMES" envSeparator:","`
	UploadsDir          string   `env:"UPLOADS_DIR"`
}

func NewTelegramConfig(ctx context.Context, runtimePath string) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	if c.UploadsDir == "" {
		c.UploadsDir = filepath.Join(runtimePath, "uploads")
	}
	return c
}

// IsAdmin reports whether the sender may upload files and manage the bot.
func (c *TelegramConfig) IsAdmin(userID int64, username string) bool {
	if c.OwnerID != 0 && userID == c.OwnerID {
		return true
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return false
	}
	for _, allowed := range c.AuthorizedUsernames {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(allowed), "@"), username) {
			return true
		}
	}
	return false
}
