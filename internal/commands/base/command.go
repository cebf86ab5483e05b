package base

import (
	"github.com/muratoffalex/telechat/internal/app/di"
	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
	"github.com/muratoffalex/telechat/internal/service"
	"github.com/muratoffalex/telechat/internal/telegram"
)

// Command carries the dependencies every handler needs. Concrete commands
// embed it and override Name and Execute.
type Command struct {
	Tg        telegram.Client
	Sender    *telegram.Sender
	Logger    logger.Logger
	Cfg       *config.Config
	Localizer *service.Localizer
}

func NewCommand(di *di.Container) *Command {
	return &Command{
		Tg:        di.BotClient,
		Sender:    di.Sender,
		Logger:    di.Logger,
		Cfg:       di.Cfg,
		Localizer: di.Localizer,
	}
}

func (c *Command) Aliases() []string {
	return []string{}
}

func (c *Command) L(messageID string, data map[string]any) string {
	return c.Localizer.Localize(messageID, data)
}

// Reply sends a plain-text reply to the given message.
func (c *Command) Reply(msg *telegram.Message, text string) error {
	_, err := c.Tg.Send(telegram.NewMessage(msg.Chat.ID, text, msg.MessageID))
	if err != nil {
		c.Logger.WithError(err).Error("Failed to send message")
	}
	return err
}
