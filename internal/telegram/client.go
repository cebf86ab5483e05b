package telegram

import (
	"encoding/json"
	"regexp"
	"strconv"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/muratoffalex/telechat/internal/logger"
)

type BotClient struct {
	bot    *tgbotapi.BotAPI
	logger logger.Logger
}

func NewBotClient(bot *tgbotapi.BotAPI, logger logger.Logger) Client {
	return &BotClient{
		bot:    bot,
		logger: logger,
	}
}

func (c *BotClient) Send(msg MessageConfig) (*Message, error) {
	sentMsg, err := c.bot.Send(msg.ToChattable())
	if err != nil {
		return nil, err
	}
	return adaptMessage(&sentMsg), nil
}

func (c *BotClient) Request(msg MessageConfig) (*tgbotapi.APIResponse, error) {
	return c.bot.Request(msg.ToChattable())
}

func (c *BotClient) DeleteMessage(chatID int64, messageID int) error {
	_, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (c *BotClient) SendChatAction(chatID int64, action ChatAction) error {
	_, err := c.bot.Request(tgbotapi.NewChatAction(chatID, string(action)))
	return err
}

// SetMessageReaction attaches a single emoji reaction to a message. The
// wrapper library has no typed config for this endpoint, so the request is
// built by hand.
func (c *BotClient) SetMessageReaction(chatID int64, messageID int, emoji string) error {
	reaction, err := json.Marshal([]map[string]string{
		{"type": "emoji", "emoji": emoji},
	})
	if err != nil {
		return err
	}

	params := tgbotapi.Params{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"message_id": strconv.Itoa(messageID),
		"reaction":   string(reaction),
	}
	_, err = c.bot.MakeRequest("setMessageReaction", params)
	return err
}

func (c *BotClient) GetUpdatesChan(config UpdateConfig) <-chan tgbotapi.Update {
	return c.bot.GetUpdatesChan(tgbotapi.UpdateConfig{
		Offset:  config.Offset,
		Limit:   config.Limit,
		Timeout: config.Timeout,
	})
}

func (c *BotClient) Self() User {
	return adaptUser(&c.bot.Self)
}

var retryAfterRe = regexp.MustCompile(`retry after (\d+)`)

func extractRetryAfter(errMsg string) int {
	matches := retryAfterRe.FindStringSubmatch(errMsg)
	if len(matches) > 1 {
		retryAfter, _ := strconv.Atoi(matches[1])
		return retryAfter
	}
	return 0
}

func adaptMessage(msg *tgbotapi.Message) *Message {
	if msg == nil {
		return nil
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	return &Message{
		MessageID: msg.MessageID,
		Chat:      adaptChat(&msg.Chat),
		Text:      text,
		From:      adaptUser(msg.From),
		ReplyTo:   adaptMessage(msg.ReplyToMessage),
		Command:   msg.Command(),
		Args:      msg.CommandArguments(),
		Kind:      classifyContent(msg),
	}
}

func adaptUser(user *tgbotapi.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:        int64(user.ID),
		FirstName: user.FirstName,
		UserName:  user.UserName,
		IsBot:     user.IsBot,
	}
}

func adaptChat(chat *tgbotapi.Chat) Chat {
	if chat == nil {
		return Chat{}
	}
	return Chat{
		ID:   chat.ID,
		Type: chat.Type,
	}
}

// AdaptMessage converts a raw library message into the bot's own type.
func AdaptMessage(msg *tgbotapi.Message) *Message {
	return adaptMessage(msg)
}
