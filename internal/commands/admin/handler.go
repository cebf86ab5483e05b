// Package admin implements the /admin_* command family. Every mutation is
// persisted to the access file immediately and logged with the acting admin.
package admin

import (
	"context"
	"strconv"
	"strings"

	"github.com/muratoffalex/telechat/internal/access"
	"github.com/muratoffalex/telechat/internal/app/di"
	"github.com/muratoffalex/telechat/internal/commands/base"
	"github.com/muratoffalex/telechat/internal/history"
	"github.com/muratoffalex/telechat/internal/logger"
	"github.com/muratoffalex/telechat/internal/telegram"
)

const CommandName = "admin_list"

type Command struct {
	*base.Command
	access  *access.Filter
	history *history.Store
}

func New(di *di.Container) *Command {
	return &Command{
		Command: base.NewCommand(di),
		access:  di.Access,
		history: di.History,
	}
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{
		"admin_add_user", "admin_remove_user",
		"admin_add_chat", "admin_remove_chat",
		"admin_reactions_on", "admin_reactions_off", "admin_reactions_status",
		"admin_date_on", "admin_date_off", "admin_date_status",
		"admin_clear_history",
	}
}

func (c *Command) Execute(ctx context.Context, msg *telegram.Message) error {
	if !c.access.IsAdmin(msg.From.ID) {
		return c.Reply(msg, c.L("AdminOnly", nil))
	}

	c.Logger.WithFields(logger.Fields{
		"admin":   msg.From.ID,
		"command": msg.Command,
		"args":    msg.Args,
	}).Info("Admin command")

	list := c.access.List()

	switch msg.Command {
	case "admin_add_user":
		return c.mutateID(msg, func(id int64) (bool, error) { return list.AllowUser(id) },
			"AdminUserAdded", "AdminUserAlready")
	case "admin_remove_user":
		return c.mutateID(msg, func(id int64) (bool, error) { return list.RemoveUser(id) },
			"AdminUserRemoved", "AdminUserMissing")
	case "admin_add_chat":
		return c.mutateID(msg, func(id int64) (bool, error) { return list.AllowChat(id) },
			"AdminChatAdded", "AdminChatAlready")
	case "admin_remove_chat":
		return c.mutateID(msg, func(id int64) (bool, error) { return list.RemoveChat(id) },
			"AdminChatRemoved", "AdminChatMissing")
	case "admin_list":
		return c.Reply(msg, c.L("AdminListHeader", map[string]any{
			"Users":     formatIDs(list.Users()),
			"Chats":     formatIDs(list.Chats()),
			"Reactions": onOff(list.ReactionsEnabled()),
			"Date":      onOff(list.AlwaysAppendDateEnabled()),
		}))
	case "admin_reactions_on":
		if err := list.SetReactionsEnabled(true); err != nil {
			return err
		}
		return c.Reply(msg, c.L("AdminReactionsOn", nil))
	case "admin_reactions_off":
		if err := list.SetReactionsEnabled(false); err != nil {
			return err
		}
		return c.Reply(msg, c.L("AdminReactionsOff", nil))
	case "admin_reactions_status":
		return c.Reply(msg, c.L("AdminReactionsStatus", map[string]any{
			"State": onOff(list.ReactionsEnabled()),
		}))
	case "admin_date_on":
		if err := list.SetAlwaysAppendDateEnabled(true); err != nil {
			return err
		}
		return c.Reply(msg, c.L("AdminDateOn", nil))
	case "admin_date_off":
		if err := list.SetAlwaysAppendDateEnabled(false); err != nil {
			return err
		}
		return c.Reply(msg, c.L("AdminDateOff", nil))
	case "admin_date_status":
		return c.Reply(msg, c.L("AdminDateStatus", map[string]any{
			"State": onOff(list.AlwaysAppendDateEnabled()),
		}))
	case "admin_clear_history":
		contextID := msg.From.ID
		if !msg.Chat.IsPrivate() {
			contextID = msg.Chat.ID
		}
		if err := c.history.Clear(ctx, contextID); err != nil {
			c.Logger.WithError(err).Error("Failed to clear history")
			return c.Reply(msg, c.L("ErrorGeneric", nil))
		}
		return c.Reply(msg, c.L("HistoryCleared", nil))
	default:
		return c.Reply(msg, c.L("HelpMessage", nil))
	}
}

func (c *Command) mutateID(msg *telegram.Message, mutate func(int64) (bool, error), okKey, noopKey string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.Args), 10, 64)
	if err != nil {
		return c.Reply(msg, c.L("AdminUsageID", map[string]any{
			"Command": "/" + msg.Command,
		}))
	}

	changed, err := mutate(id)
	if err != nil {
		c.Logger.WithError(err).Error("Failed to persist access list")
		return c.Reply(msg, c.L("ErrorGeneric", nil))
	}

	key := okKey
	if !changed {
		key = noopKey
	}
	return c.Reply(msg, c.L(key, map[string]any{"ID": id}))
}

func formatIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
