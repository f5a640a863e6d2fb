package telegram

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sandevgo/teambot/internal/config"
	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Bot struct {
	bot     *tele.Bot
	cfg     *config.TelegramConfig
	handler *handler
	sender  *sender
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	responder Responder,
	router core.CmdRouter,
	uploader Uploader,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.FromCtx(ctx).Error().Err(err).Msg("telegram handler failed")
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot: b,
		cfg: cfg,
		handler: &handler{
			responder: responder,
			router:    router,
			uploader:  uploader,
			botName:   func() string { return b.Me.Username },
		},
		sender: newSender(b),
	}

	// Handlers get the signal context carrying the logger.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	b.Handle("/start", bot.handleStart)
	b.Handle("/ask", bot.handleAsk)
	b.Handle(tele.OnText, bot.handleText)
	b.Handle(tele.OnDocument, bot.handleDocument)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("username", b.bot.Me.Username).Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) context(c tele.Context) context.Context {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx).With().
		Int64("chat_id", c.Chat().ID).
		Int64("user_id", c.Sender().ID).
		Logger()
	return logger.WithContext(ctx)
}

func (b *Bot) request(c tele.Context, text string) request {
	chat, user := c.Chat(), c.Sender()
	group := chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup

	key := core.DirectKey(user.ID)
	if group {
		key = core.GroupKey(user.ID, chat.ID)
	}

	return request{
		caller: core.Caller{
			Key:      key,
			Username: user.Username,
			IsAdmin:  b.cfg.IsAdmin(user.ID, user.Username),
		},
		text:  text,
		group: group,
	}
}

func (b *Bot) handleStart(c tele.Context) error {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text("/start"), menu.Text("/help")))
	return c.Send(greeting, menu)
}

func (b *Bot) handleAsk(c tele.Context) error {
	ctx := b.context(c)
	stop := b.sender.keepTyping(ctx, c.Chat())
	reply := b.handler.onAsk(ctx, b.request(c, c.Message().Payload))
	stop()
	return b.sender.sendMarkdown(ctx, c.Chat(), reply)
}

func (b *Bot) handleText(c tele.Context) error {
	ctx := b.context(c)
	req := b.request(c, c.Text())

	stop := func() {}
	if !req.group {
		stop = b.sender.keepTyping(ctx, c.Chat())
	}
	reply, ok := b.handler.onText(ctx, req)
	stop()

	if !ok {
		return nil
	}
	return b.sender.sendMarkdown(ctx, c.Chat(), reply)
}

func (b *Bot) handleDocument(c tele.Context) error {
	ctx := b.context(c)
	doc := c.Message().Document

	reply := b.handler.onDocument(ctx, b.request(c, ""), doc.FileName, func() (io.ReadCloser, error) {
		return b.bot.File(&doc.File)
	})
	return b.sender.sendMarkdown(ctx, c.Chat(), reply)
}
