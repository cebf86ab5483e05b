package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/muratoffalex/telechat/internal/ai"
	"github.com/muratoffalex/telechat/internal/markdown"
	"github.com/muratoffalex/telechat/internal/telegram"
)

// partPrefixReserve keeps room in each chunk for the "(part i/n)" prefix.
const partPrefixReserve = 25

// streamResponse consumes the provider's delta stream, editing the
// placeholder whenever the accumulated text crosses the size threshold and
// enough time passed since the last edit. It returns the complete text and
// any citation URLs; delivery of the final text is the caller's job.
func (c *Command) streamResponse(ctx context.Context, chatID int64, placeholder *telegram.Message, req ai.Request) (string, []string, error) {
	stream, err := c.provider.GenerateStream(ctx, req)
	if err != nil {
		return "", nil, err
	}

	botCfg := c.Cfg.Bot()
	threshold := botCfg.StreamingThresh
	interval := botCfg.StreamingUpdateInterval()
	maxLen := botCfg.MaxMessageLength
	indicator := c.L("GeneratingIndicator", nil)

	lastUpdate := c.now()
	var content string

	for chunk := range stream {
		if chunk.Err != nil {
			return "", nil, chunk.Err
		}
		content = chunk.Accumulated

		if chunk.Final {
			return content, chunk.SourceURLs, nil
		}

		if len([]rune(content)) < threshold {
			continue
		}
		now := c.now()
		if now.Sub(lastUpdate) < interval {
			continue
		}

		partial := markdown.TruncateSafely(markdown.Normalize(content), maxLen, indicator)
		edit := telegram.NewEditMessageText(chatID, placeholder.MessageID, partial)
		edit.ParseMode = telegram.ModeMarkdown
		edit.LinkPreviewDisabled = true
		if err := c.Sender.SafeEdit(ctx, edit); err != nil {
			// One missed partial update is tolerable, the next one catches up.
			c.Logger.WithError(err).Warn("Failed to edit streaming message")
		}
		lastUpdate = now
	}

	if content == "" {
		return "", nil, errors.New("stream ended without content")
	}
	return content, nil, nil
}

// finalize delivers the complete response: a single edit when it fits,
// otherwise numbered chunks with the placeholder reused for the first one.
// The citation block goes on the last chunk only.
func (c *Command) finalize(ctx context.Context, chatID int64, placeholder *telegram.Message, content string, sourceURLs []string) error {
	maxLen := c.Cfg.Bot().MaxMessageLength
	text := markdown.Normalize(content)
	sources := c.sourcesBlock(sourceURLs)

	if len([]rune(text)) <= maxLen {
		return c.deliver(ctx, chatID, placeholder, text+sources, true)
	}

	chunks := markdown.SplitMessage(text, maxLen-partPrefixReserve)
	for i, chunk := range chunks {
		body := fmt.Sprintf("(part %d/%d)\n%s", i+1, len(chunks), chunk)
		if i == len(chunks)-1 {
			body += sources
		}
		if err := c.deliver(ctx, chatID, placeholder, body, i == 0); err != nil {
			return err
		}
	}
	return nil
}

func (c *Command) deliver(ctx context.Context, chatID int64, placeholder *telegram.Message, text string, editPlaceholder bool) error {
	if editPlaceholder && placeholder != nil {
		edit := telegram.NewEditMessageText(chatID, placeholder.MessageID, text)
		edit.ParseMode = telegram.ModeMarkdown
		edit.LinkPreviewDisabled = true
		return c.Sender.SafeEdit(ctx, edit)
	}

	msg := telegram.NewMessage(chatID, text, 0)
	msg.ParseMode = telegram.ModeMarkdown
	msg.LinkPreviewDisabled = true
	_, err := c.Sender.SafeSend(ctx, msg)
	return err
}

// sourcesBlock renders the citation section, first-seen order, no duplicates.
func (c *Command) sourcesBlock(urls []string) string {
	if len(urls) == 0 {
		return ""
	}

	seen := make(map[string]bool)
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(c.L("SourcesHeader", nil))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		b.WriteString("\n")
		b.WriteString(u)
	}
	return b.String()
}
