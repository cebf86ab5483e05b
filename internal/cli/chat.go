// Package cli is an interactive terminal chat that talks to the same
// providers and history store as the bot, useful for trying prompts without
// a Telegram token.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/muratoffalex/telechat/internal/ai"
	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/history"
	"github.com/muratoffalex/telechat/internal/logger"
)

// cliContextID keys the terminal session's history. Telegram IDs are always
// positive, so a negative constant can never collide with a real context.
const cliContextID int64 = -1

type Chat struct {
	provider ai.Provider
	history  *history.Store
	cfg      *config.Config
	logger   logger.Logger
	in       *bufio.Scanner
	out      *os.File
}

func NewChat(provider ai.Provider, store *history.Store, cfg *config.Config, log logger.Logger) *Chat {
	return &Chat{
		provider: provider,
		history:  store,
		cfg:      cfg,
		logger:   log,
		in:       bufio.NewScanner(os.Stdin),
		out:      os.Stdout,
	}
}

func (c *Chat) Run(ctx context.Context) error {
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintln(c.out, boldGreen("telechat terminal mode"))
	fmt.Fprintln(c.out, dim("Type a message and press Enter. /clear resets history, /stats shows usage, /exit quits."))
	fmt.Fprintln(c.out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(c.out, boldGreen("You: "))
		if !c.in.Scan() {
			return c.in.Err()
		}
		input := strings.TrimSpace(c.in.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/exit", "/quit", "exit", "quit":
			return nil
		case "/clear":
			if err := c.history.Clear(ctx, cliContextID); err != nil {
				fmt.Fprintf(c.out, "failed to clear history: %v\n", err)
				continue
			}
			fmt.Fprintln(c.out, dim("History cleared."))
			continue
		case "/stats":
			st, err := c.history.ContextStats(ctx, cliContextID)
			if err != nil {
				fmt.Fprintf(c.out, "failed to read stats: %v\n", err)
				continue
			}
			fmt.Fprintf(c.out, "messages: %d, your turns: %d, characters: %d\n",
				st.Messages, st.UserTurns, st.Characters)
			continue
		}

		fmt.Fprint(c.out, boldCyan("Assistant: "))
		content, err := c.respond(ctx, input)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n\n", err)
			continue
		}
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out)

		if err := c.history.Append(ctx, cliContextID, ai.RoleUser, input); err != nil {
			c.logger.WithError(err).Error("Failed to store user turn")
		}
		if err := c.history.Append(ctx, cliContextID, ai.RoleAssistant, content); err != nil {
			c.logger.WithError(err).Error("Failed to store assistant turn")
		}
	}
}

// respond streams the answer to the terminal as deltas arrive and returns
// the complete text.
func (c *Chat) respond(ctx context.Context, prompt string) (string, error) {
	req, err := c.buildRequest(ctx, prompt)
	if err != nil {
		return "", err
	}

	if !c.cfg.Bot().EnableStreaming {
		resp, err := c.provider.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		fmt.Fprint(c.out, resp.Content)
		return resp.Content, nil
	}

	stream, err := c.provider.GenerateStream(ctx, req)
	if err != nil {
		return "", err
	}

	var content string
	for chunk := range stream {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		fmt.Fprint(c.out, chunk.Delta)
		content = chunk.Accumulated
	}
	return content, nil
}

func (c *Chat) buildRequest(ctx context.Context, prompt string) (ai.Request, error) {
	var messages []ai.Message
	if sp := c.cfg.Mistral().SystemPrompt; sp != "" {
		messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: sp})
	}

	recent, err := c.history.History(ctx, cliContextID)
	if err != nil {
		return ai.Request{}, err
	}
	messages = append(messages, recent...)
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: prompt})

	return ai.Request{Messages: messages}, nil
}
