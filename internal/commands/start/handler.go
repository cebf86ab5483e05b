package start

import (
	"context"

	"github.com/muratoffalex/telechat/internal/app/di"
	"github.com/muratoffalex/telechat/internal/commands/base"
	"github.com/muratoffalex/telechat/internal/telegram"
)

const CommandName = "start"

type Command struct {
	*base.Command
}

func New(di *di.Container) *Command {
	return &Command{Command: base.NewCommand(di)}
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{"help"}
}

func (c *Command) Execute(ctx context.Context, msg *telegram.Message) error {
	var text string
	if msg.Command == "help" {
		text = c.L("HelpMessage", nil)
	} else {
		text = c.L("StartMessage", map[string]any{
			"BotName": c.Tg.Self().FirstName,
		})
	}
	return c.Reply(msg, text)
}
