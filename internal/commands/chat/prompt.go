package chat

import (
	"context"
	"fmt"

	"github.com/muratoffalex/telechat/internal/ai"
	"github.com/muratoffalex/telechat/internal/search"
)

// buildRequest assembles the message list for the provider: system prompt,
// optional date and search context, stored history, then the user prompt.
func (c *Command) buildRequest(ctx context.Context, contextID int64, prompt string, searchResult search.Result) (ai.Request, error) {
	cfg := c.Cfg.Mistral()
	var messages []ai.Message

	if cfg.SystemPrompt != "" {
		messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: cfg.SystemPrompt})
	}

	if c.shouldAppendDate(prompt) {
		messages = append(messages, ai.Message{
			Role:    ai.RoleSystem,
			Content: fmt.Sprintf("Today is %s.", c.now().Format("Monday, 02 January 2006")),
		})
	}

	if !searchResult.Empty() {
		messages = append(messages, ai.Message{
			Role:    ai.RoleSystem,
			Content: "Relevant web search results:\n\n" + searchResult.Text,
		})
	}

	recent, err := c.history.History(ctx, contextID)
	if err != nil {
		return ai.Request{}, err
	}
	messages = append(messages, recent...)

	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: prompt})

	return ai.Request{Messages: messages}, nil
}

// shouldAppendDate is an OR gate: the configured always-on switch (combined
// with its runtime toggle) or a per-prompt keyword hit.
func (c *Command) shouldAppendDate(prompt string) bool {
	always := c.Cfg.Mistral().AlwaysAppend && c.access.List().AlwaysAppendDateEnabled()
	return always || search.NeedsDate(prompt)
}
