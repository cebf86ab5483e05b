package telegram

import (
	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

type ParseMode = string

const (
	// ModeMarkdown is Telegram's legacy Markdown dialect. The markdown
	// package normalizes model output for this mode.
	ModeMarkdown = "Markdown"
	ModeNone     = ""
)

type (
	Update    = tgbotapi.Update
	Chattable = tgbotapi.Chattable
)

type Message struct {
	MessageID int
	Chat      Chat
	Text      string
	From      User
	ReplyTo   *Message
	Command   string
	Args      string
	Kind      ContentKind
}

type User struct {
	ID        int64
	FirstName string
	UserName  string
	IsBot     bool
}

type Chat struct {
	ID   int64
	Type string
}

func (c Chat) IsPrivate() bool {
	return c.Type == "private"
}

// ContentKind is a closed enumeration of the message content types the bot
// distinguishes. Classification happens once per update so handlers can
// switch exhaustively instead of probing optional fields.
type ContentKind int

const (
	ContentText ContentKind = iota
	ContentPhoto
	ContentVoice
	ContentSticker
	ContentDocument
	ContentVideo
	ContentOther
)

func (k ContentKind) String() string {
	switch k {
	case ContentText:
		return "text"
	case ContentPhoto:
		return "photo"
	case ContentVoice:
		return "voice"
	case ContentSticker:
		return "sticker"
	case ContentDocument:
		return "document"
	case ContentVideo:
		return "video"
	default:
		return "other"
	}
}

func classifyContent(msg *tgbotapi.Message) ContentKind {
	switch {
	case msg.Text != "":
		return ContentText
	case len(msg.Photo) > 0:
		return ContentPhoto
	case msg.Voice != nil:
		return ContentVoice
	case msg.Sticker != nil:
		return ContentSticker
	case msg.Document != nil:
		return ContentDocument
	case msg.Video != nil:
		return ContentVideo
	default:
		return ContentOther
	}
}

type MessageConfig interface {
	ToChattable() tgbotapi.Chattable
}

type TextMessage struct {
	ChatID              int64
	Text                string
	ReplyTo             int
	LinkPreviewDisabled bool
	ParseMode           ParseMode
}

func NewMessage(chatID int64, text string, replyTo int) TextMessage {
	return TextMessage{
		ChatID:  chatID,
		Text:    text,
		ReplyTo: replyTo,
	}
}

func (m TextMessage) ToChattable() tgbotapi.Chattable {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyParameters.MessageID = m.ReplyTo
	msg.ParseMode = m.ParseMode
	msg.LinkPreviewOptions.IsDisabled = m.LinkPreviewDisabled
	return msg
}

type EditMessageTextConfig struct {
	ChatID              int64
	MessageID           int
	Text                string
	ParseMode           ParseMode
	LinkPreviewDisabled bool
}

func NewEditMessageText(chatID int64, messageID int, text string) EditMessageTextConfig {
	return EditMessageTextConfig{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
}

func (m EditMessageTextConfig) ToChattable() tgbotapi.Chattable {
	msg := tgbotapi.NewEditMessageText(m.ChatID, m.MessageID, m.Text)
	msg.LinkPreviewOptions.IsDisabled = m.LinkPreviewDisabled
	msg.ParseMode = m.ParseMode
	return msg
}

type UpdateConfig struct {
	Offset  int
	Limit   int
	Timeout int
}

type ChatAction string

const (
	ActionTyping ChatAction = "typing"
)

type Client interface {
	Send(msg MessageConfig) (*Message, error)
	Request(msg MessageConfig) (*tgbotapi.APIResponse, error)
	DeleteMessage(chatID int64, messageID int) error
	SendChatAction(chatID int64, action ChatAction) error
	SetMessageReaction(chatID int64, messageID int, emoji string) error
	GetUpdatesChan(config UpdateConfig) <-chan tgbotapi.Update
	Self() User
}
