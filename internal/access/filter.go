package access

import (
	"strings"

	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
	"github.com/muratoffalex/telechat/internal/telegram"
)

// Filter decides whether an incoming message should be handled.
//
// Private chats: the sender must be on the allow list or be an admin.
// Groups and supergroups: the chat must be allowed AND the message must be
// addressed to the bot, either as a reply to one of its messages or with an
// @username mention.
type Filter struct {
	list        *List
	admin       config.AdminConfig
	botUsername string
	logger      logger.Logger
}

func NewFilter(list *List, admin config.AdminConfig, botUsername string, log logger.Logger) *Filter {
	return &Filter{
		list:        list,
		admin:       admin,
		botUsername: strings.ToLower(strings.TrimPrefix(botUsername, "@")),
		logger:      log,
	}
}

func (f *Filter) IsAdmin(userID int64) bool {
	return f.admin.IsAdmin(userID)
}

func (f *Filter) IsAllowedUser(userID int64) bool {
	return f.list.IsAllowedUser(userID) || f.IsAdmin(userID)
}

func (f *Filter) List() *List {
	return f.list
}

func (f *Filter) Check(msg *telegram.Message) bool {
	if msg == nil {
		return false
	}

	switch msg.Chat.Type {
	case "private":
		allowed := f.IsAllowedUser(msg.From.ID)
		if !allowed {
			f.logger.WithField("user_id", msg.From.ID).Warn("Rejected private message, user not allowed")
		}
		return allowed
	case "group", "supergroup":
		if !f.list.IsAllowedChat(msg.Chat.ID) {
			f.logger.WithField("chat_id", msg.Chat.ID).Warn("Rejected message from disallowed chat")
			return false
		}
		if !f.IsDirectRequest(msg) {
			f.logger.WithField("chat_id", msg.Chat.ID).Debug("Ignoring group message, not addressed to bot")
			return false
		}
		return true
	default:
		f.logger.WithField("chat_type", msg.Chat.Type).Debug("Ignoring unknown chat type")
		return false
	}
}

// IsDirectRequest reports whether the message is addressed to the bot.
func (f *Filter) IsDirectRequest(msg *telegram.Message) bool {
	if msg.ReplyTo != nil && msg.ReplyTo.From.IsBot &&
		strings.ToLower(msg.ReplyTo.From.UserName) == f.botUsername {
		return true
	}
	return strings.Contains(strings.ToLower(msg.Text), "@"+f.botUsername)
}

// StripMention removes the bot's @username from the text so the mention does
// not leak into the prompt.
func (f *Filter) StripMention(text string) string {
	mention := "@" + f.botUsername
	var b strings.Builder
	lower := strings.ToLower(text)
	for {
		idx := strings.Index(lower, mention)
		if idx == -1 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:idx])
		text = text[idx+len(mention):]
		lower = lower[idx+len(mention):]
	}
	return strings.TrimSpace(b.String())
}
