package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/internal/service/knowledge"
	"github.com/sandevgo/teambot/pkg/log"
)

const (
	greeting          = "Привет! Я ТимФорсер. Чем могу помочь?"
	failureReply      = "Sorry, something went wrong. Please try again later."
	askUsage          = "Usage: /ask <question>"
	uploadsAdminOnly  = "Only administrators can upload documents."
	unsupportedUpload = "Please upload a .txt, .md, .csv or .html file."
	knowledgePrefix   = "+"
)

type Responder interface {
	Respond(ctx context.Context, key core.ConversationKey, text string) (string, error)
}

type Uploader interface {
	IngestUpload(ctx context.Context, key core.ConversationKey, name string, r io.Reader) (int, error)
}

// request is a transport independent view of an incoming message.
type request struct {
	caller core.Caller
	text   string
	group  bool
}

// handler decides what to reply; Bot only moves bytes to and from Telegram.
type handler struct {
	responder Responder
	router    core.CmdRouter
	uploader  Uploader
	botName   func() string
}

// onText returns the markdown reply for a text message. ok is false when the
// message is not addressed to the bot.
func (h *handler) onText(ctx context.Context, req request) (reply string, ok bool) {
	text := strings.TrimSpace(req.text)
	if text == "" {
		return "", false
	}

	// Group messages, commands and knowledge updates included, must mention the bot.
	if req.group {
		stripped, mentioned := stripMention(text, h.botName())
		if !mentioned {
			return "", false
		}
		text = stripped
	}

	if strings.HasPrefix(text, "/") {
		return h.router.Execute(ctx, req.caller, text)
	}

	if rest, found := strings.CutPrefix(text, knowledgePrefix); found {
		return h.router.Execute(ctx, req.caller, "/upd "+rest)
	}

	return h.answer(ctx, req.caller.Key, text), true
}

func (h *handler) onAsk(ctx context.Context, req request) string {
	question := strings.TrimSpace(req.text)
	if question == "" {
		return askUsage
	}
	if req.group {
		if stripped, ok := stripMention(question, h.botName()); ok {
			question = stripped
		}
	}
	return h.answer(ctx, req.caller.Key, question)
}

func (h *handler) answer(ctx context.Context, key core.ConversationKey, text string) string {
	if text == "" {
		return greeting
	}

	reply, err := h.responder.Respond(ctx, key, text)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("conversation", key.String()).Msg("failed to answer")
		return failureReply
	}
	return reply
}

func (h *handler) onDocument(ctx context.Context, req request, name string, open func() (io.ReadCloser, error)) string {
	logger := log.FromCtx(ctx)

	if !req.caller.IsAdmin {
		return uploadsAdminOnly
	}
	if !knowledge.IsSupported(name) {
		return unsupportedUpload
	}

	rc, err := open()
	if err != nil {
		logger.Error().Err(err).Str("file", name).Msg("failed to download document")
		return failureReply
	}
	defer rc.Close()

	n, err := h.uploader.IngestUpload(ctx, req.caller.Key, name, rc)
	if err != nil {
		if errors.Is(err, knowledge.ErrUnsupportedFormat) {
			return unsupportedUpload
		}
		if errors.Is(err, knowledge.ErrEmptyKnowledge) {
			return fmt.Sprintf("File `%s` has no usable text.", name)
		}
		logger.Error().Err(err).Str("file", name).Msg("failed to ingest document")
		return failureReply
	}

	return fmt.Sprintf("✅ File `%s` added to the knowledge base (%d documents).", name, n)
}

// stripMention removes @botName from text. It reports whether the mention
// was present.
func stripMention(text, botName string) (string, bool) {
	if botName == "" {
		return text, false
	}

	mention := "@" + strings.ToLower(botName)
	idx := strings.Index(strings.ToLower(text), mention)
	if idx < 0 {
		return text, false
	}

	stripped := text[:idx] + text[idx+len(mention):]
	return strings.Join(strings.Fields(stripped), " "), true
}
