// Package chat turns an incoming text message into a model response. It owns
// the streaming coordination: placeholder message, throttled edits while
// deltas arrive, final split delivery with citations, and history commit.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/muratoffalex/telechat/internal/access"
	"github.com/muratoffalex/telechat/internal/ai"
	"github.com/muratoffalex/telechat/internal/app/di"
	"github.com/muratoffalex/telechat/internal/commands/base"
	"github.com/muratoffalex/telechat/internal/history"
	"github.com/muratoffalex/telechat/internal/logger"
	"github.com/muratoffalex/telechat/internal/search"
	"github.com/muratoffalex/telechat/internal/telegram"
)

const CommandName = "chat"

type Command struct {
	*base.Command
	provider ai.Provider
	history  *history.Store
	search   *search.Client
	access   *access.Filter
	now      func() time.Time
}

func New(di *di.Container) *Command {
	return &Command{
		Command:  base.NewCommand(di),
		provider: di.AI,
		history:  di.History,
		search:   di.Search,
		access:   di.Access,
		now:      time.Now,
	}
}

func (c *Command) Name() string {
	return CommandName
}

// Execute drives one full response generation. Failures are logged and
// surfaced to the user as a generic notice, never returned, so one broken
// generation cannot take down the update loop.
func (c *Command) Execute(ctx context.Context, msg *telegram.Message) error {
	prompt := msg.Text
	if prompt == "" {
		return nil
	}

	contextID := c.contextID(msg)
	log := c.Logger.WithFields(logger.Fields{
		"request_id": uuid.NewString(),
		"context_id": contextID,
		"chat_id":    msg.Chat.ID,
	})

	if err := c.Tg.SendChatAction(msg.Chat.ID, telegram.ActionTyping); err != nil {
		log.WithError(err).Debug("Failed to send chat action")
	}

	willSearch := c.willSearch(prompt)

	placeholderKey := "StatusThinking"
	if willSearch {
		placeholderKey = "StatusSearching"
	}
	placeholder, err := c.Sender.SafeSend(ctx, telegram.NewMessage(
		msg.Chat.ID, c.L(placeholderKey, nil), msg.MessageID,
	))
	if err != nil {
		log.WithError(err).Error("Failed to send placeholder message")
		return nil
	}

	var searchResult search.Result
	if willSearch {
		searchResult = c.search.Search(ctx, prompt)
	}

	req, err := c.buildRequest(ctx, contextID, prompt, searchResult)
	if err != nil {
		log.WithError(err).Error("Failed to build request")
		c.recover(ctx, msg, placeholder, err)
		return nil
	}

	var content string
	var sourceURLs []string
	if c.Cfg.Bot().EnableStreaming {
		content, sourceURLs, err = c.streamResponse(ctx, msg.Chat.ID, placeholder, req)
	} else {
		content, sourceURLs, err = c.generateOnce(ctx, req, log)
	}
	if err != nil {
		log.WithError(err).Error("Response generation failed")
		c.recover(ctx, msg, placeholder, err)
		return nil
	}

	if len(searchResult.URLs) > 0 {
		sourceURLs = append(sourceURLs, searchResult.URLs...)
	}

	delivery := content
	if willSearch && searchResult.Empty() {
		delivery = c.L("SearchUnavailable", nil) + "\n\n" + content
	}

	if err := c.finalize(ctx, msg.Chat.ID, placeholder, delivery, sourceURLs); err != nil {
		log.WithError(err).Error("Failed to deliver response")
		c.recover(ctx, msg, placeholder, err)
		return nil
	}

	// History commits only after the full response reached the user, so a
	// failed stream never leaves a partial assistant turn behind.
	if err := c.history.Append(ctx, contextID, ai.RoleUser, prompt); err != nil {
		log.WithError(err).Error("Failed to store user turn")
	}
	if err := c.history.Append(ctx, contextID, ai.RoleAssistant, content); err != nil {
		log.WithError(err).Error("Failed to store assistant turn")
	}
	return nil
}

func (c *Command) generateOnce(ctx context.Context, req ai.Request, log logger.Logger) (string, []string, error) {
	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return "", nil, err
	}
	log.WithFields(logger.Fields{
		"model":         resp.Model,
		"input_tokens":  resp.InputTokens,
		"output_tokens": resp.OutputTokens,
	}).Info("Response generated")
	return resp.Content, nil, nil
}

func (c *Command) contextID(msg *telegram.Message) int64 {
	if msg.Chat.IsPrivate() {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func (c *Command) willSearch(prompt string) bool {
	return c.search != nil &&
		c.Cfg.Mistral().EnableWebSearch &&
		search.NeedsSearch(prompt)
}

// recover replaces the placeholder with a plain error notice. When even the
// edit fails a fresh message is sent instead.
func (c *Command) recover(ctx context.Context, msg *telegram.Message, placeholder *telegram.Message, cause error) {
	key := "ErrorGeneric"
	if errors.Is(cause, ai.ErrAllProviders) || errors.Is(cause, ai.ErrNoProviders) {
		key = "ErrorAllProviders"
	}
	notice := c.L(key, nil)
	if placeholder != nil {
		if err := c.Sender.SafeEdit(ctx, telegram.NewEditMessageText(
			msg.Chat.ID, placeholder.MessageID, notice,
		)); err == nil {
			return
		}
	}
	if _, err := c.Sender.SafeSend(ctx, telegram.NewMessage(msg.Chat.ID, notice, msg.MessageID)); err != nil {
		c.Logger.WithError(err).Error("Failed to send error notice")
	}
}
