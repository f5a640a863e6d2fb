package telegram

import (
	"context"
	"strings"
	"time"

	"github.com/sandevgo/teambot/pkg/conv"
	"github.com/sandevgo/teambot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const (
	maxTelegramMsgLen = 4000 // below the 4096 hard limit
	typingInterval    = 4 * time.Second
)

type sender struct {
	bot *tele.Bot
}

func newSender(bot *tele.Bot) *sender {
	return &sender{bot: bot}
}

// sendMarkdown converts markdown to Telegram HTML and sends it in chunks.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, md string, opts ...interface{}) error {
	logger := log.FromCtx(ctx)

	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))
	if html == "" {
		return nil
	}

	for i, chunk := range conv.SplitMessage(html, maxTelegramMsgLen) {
		chunkOpts := append([]interface{}{tele.ModeHTML}, opts...)
		if _, err := s.bot.Send(to, chunk, chunkOpts...); err != nil {
			logger.Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
			return err
		}
	}
	return nil
}

// keepTyping shows the typing indicator until the returned stop is called.
func (s *sender) keepTyping(ctx context.Context, to tele.Recipient) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	_ = s.bot.Notify(to, tele.Typing)

	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.bot.Notify(to, tele.Typing)
			}
		}
	}()
	return cancel
}
