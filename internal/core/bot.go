package core

import (
	"context"

	"github.com/muratoffalex/telechat/internal/access"
	"github.com/muratoffalex/telechat/internal/commands"
	"github.com/muratoffalex/telechat/internal/logger"
	"github.com/muratoffalex/telechat/internal/reactions"
	"github.com/muratoffalex/telechat/internal/service"
	"github.com/muratoffalex/telechat/internal/telegram"
)

// Bot owns the update loop: it filters updates through access control,
// dispatches slash commands, and routes plain text to the chat command. Each
// accepted update is handled on its own goroutine.
type Bot struct {
	commands  map[string]commands.Command
	chat      commands.Command
	tg        telegram.Client
	access    *access.Filter
	reactions *reactions.Analyzer
	localizer *service.Localizer
	logger    logger.Logger
}

func NewBot(
	tg telegram.Client,
	accessFilter *access.Filter,
	reactionAnalyzer *reactions.Analyzer,
	localizer *service.Localizer,
	log logger.Logger,
) *Bot {
	return &Bot{
		commands:  make(map[string]commands.Command),
		tg:        tg,
		access:    accessFilter,
		reactions: reactionAnalyzer,
		localizer: localizer,
		logger:    log,
	}
}

// RegisterCommand makes a command reachable by its name and aliases.
func (b *Bot) RegisterCommand(cmd commands.Command) {
	b.commands[cmd.Name()] = cmd
	for _, alias := range cmd.Aliases() {
		b.commands[alias] = cmd
	}
}

// RegisterChatCommand sets the fallback handler for plain text messages.
func (b *Bot) RegisterChatCommand(cmd commands.Command) {
	b.chat = cmd
}

func (b *Bot) Start(ctx context.Context) error {
	updates := b.tg.GetUpdatesChan(telegram.UpdateConfig{Timeout: 60})

	b.logger.Info("Bot started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, telegram.AdaptMessage(update.Message))
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	if !b.access.Check(msg) {
		return
	}

	if msg.Command != "" {
		cmd, ok := b.commands[msg.Command]
		if !ok {
			b.logger.WithField("command", msg.Command).Debug("Unknown command")
			return
		}
		b.run(ctx, cmd, msg)
		return
	}

	if msg.Kind != telegram.ContentText {
		if msg.Text == "" {
			go b.replyUnsupported(msg)
			return
		}
		// Captioned media still makes a prompt, tagged with the content kind.
		msg.Text = "[" + msg.Kind.String() + "] " + b.access.StripMention(msg.Text)
	}

	if b.reactions != nil && b.reactions.ShouldAnalyze(msg.Text) {
		go b.reactions.React(ctx, msg)
	}

	if b.chat == nil {
		return
	}
	// Drop the mention so it does not leak into the prompt.
	msg.Text = b.access.StripMention(msg.Text)
	if msg.Text == "" {
		return
	}
	b.run(ctx, b.chat, msg)
}

func (b *Bot) run(ctx context.Context, cmd commands.Command, msg *telegram.Message) {
	go func() {
		if err := cmd.Execute(ctx, msg); err != nil {
			b.logger.WithError(err).WithFields(logger.Fields{
				"command": cmd.Name(),
				"chat_id": msg.Chat.ID,
			}).Error("Command failed")
		}
	}()
}

func (b *Bot) replyUnsupported(msg *telegram.Message) {
	key := map[telegram.ContentKind]string{
		telegram.ContentPhoto:    "UnsupportedPhoto",
		telegram.ContentVoice:    "UnsupportedVoice",
		telegram.ContentSticker:  "UnsupportedSticker",
		telegram.ContentDocument: "UnsupportedDocument",
		telegram.ContentVideo:    "UnsupportedVideo",
	}[msg.Kind]
	if key == "" {
		key = "UnsupportedOther"
	}

	reply := telegram.NewMessage(msg.Chat.ID, b.localizer.Localize(key, nil), msg.MessageID)
	if _, err := b.tg.Send(reply); err != nil {
		b.logger.WithError(err).Error("Failed to send unsupported content notice")
	}
}
